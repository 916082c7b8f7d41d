// Package identity defines SocioFeed's canonical user principal and the
// directory lookups the realtime core needs from the persistence collaborator.
//
// User CRUD, password hashing, and profile management live outside this
// repository; the core only resolves users by id and reads their counters.
package identity
