package legacy

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

// Reader reads one node of the legacy tree into v.
type Reader interface {
	Get(ctx context.Context, path string, v interface{}) error
}

// FirebaseReader reads from a Firebase Realtime Database.
type FirebaseReader struct {
	client *db.Client
}

func NewFirebaseReader(client *db.Client) *FirebaseReader {
	return &FirebaseReader{client: client}
}

// DialFirebase opens the database at databaseURL. An empty credentialsFile
// falls back to application default credentials.
func DialFirebase(ctx context.Context, databaseURL, credentialsFile string) (*FirebaseReader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database: %w", err)
	}
	return NewFirebaseReader(client), nil
}

func (r *FirebaseReader) Get(ctx context.Context, path string, v interface{}) error {
	return r.client.NewRef(path).Get(ctx, v)
}
