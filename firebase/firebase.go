// Package firebase connects to Firebase and stores tasks in Cloud Firestore.
package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"team-task-manager/config"
	"team-task-manager/utilities"
)

// InitializeFirebase creates the app from a service account file. With no
// file, application default credentials are used (or the emulator when
// FIRESTORE_EMULATOR_HOST is set).
func InitializeFirebase(ctx context.Context, cfg config.FirestoreConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}
	var appConfig *firebase.Config
	if cfg.ProjectID != "" {
		appConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase: %w", err)
	}
	utilities.LogInfo("Firebase initialized")
	return app, nil
}

// NewFirestoreClient opens a Firestore client. The caller closes it.
func NewFirestoreClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	app, err := InitializeFirebase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening firestore client: %w", err)
	}
	return client, nil
}
