// Package social implements SocioFeed's social graph operations: follows,
// post and comment likes, comments with user tags, and the comment deletion
// cascade. Every operation that changes a denormalized counter performs the
// row write and the counter update as one atomic step in the durable store,
// and triggers notification fan-out only after that step has committed.
package social
