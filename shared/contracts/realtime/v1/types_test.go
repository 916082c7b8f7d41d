package v1

import "testing"

func TestEnvelopeValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		env     Envelope
		wantErr bool
	}{
		{name: "valid", env: Envelope{V: Version, Type: TypeSendMessage}},
		{name: "valid server event", env: Envelope{V: Version, Type: TypeNotification}},
		{name: "missing version", env: Envelope{Type: TypeSendMessage}, wantErr: true},
		{name: "wrong version", env: Envelope{V: "v2", Type: TypeSendMessage}, wantErr: true},
		{name: "missing type", env: Envelope{V: Version}, wantErr: true},
		{name: "unknown type", env: Envelope{V: Version, Type: "subscribe"}, wantErr: true},
	}

	for _, tc := range cases {
		err := tc.env.Validate()
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: Validate() err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}
