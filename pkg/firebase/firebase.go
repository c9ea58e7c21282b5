package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

// App holds the initialized Firebase app, its auth client and, when a
// storage bucket is configured, the image store backed by it
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Images      *ImageStore
}

// InitFirebase initializes the Firebase application from a service account
// file. bucket may be empty, which leaves Images nil.
func InitFirebase(ctx context.Context, credentialsPath, bucket string, log *zap.Logger) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucket}, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient}

	if bucket != "" {
		storageClient, err := firebaseApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firebase storage client: %w", err)
		}
		handle, err := storageClient.Bucket(bucket)
		if err != nil {
			return nil, fmt.Errorf("error opening storage bucket %s: %w", bucket, err)
		}
		app.Images = NewImageStore(&gcsBucket{handle: handle}, bucket, log)
	}

	log.Info("Firebase initialized",
		zap.Bool("auth", true),
		zap.Bool("storage", app.Images != nil),
	)
	return app, nil
}
