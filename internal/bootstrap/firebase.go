package bootstrap

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/Raices-25-26J-118/raices-backend/config"
)

// Firebase bundles the clients the service needs from the Admin SDK.
type Firebase struct {
	App       *firebase.App
	Auth      *fbauth.Client
	Firestore *firestore.Client
}

// InitFirebase initializes the Firebase Admin SDK and opens the Auth and
// Firestore clients.
func InitFirebase(ctx context.Context, cfg *config.FirebaseConfig) (*Firebase, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required")
	}

	opt := option.WithCredentialsFile(cfg.CredentialsPath)
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return &Firebase{App: app, Auth: authClient, Firestore: fsClient}, nil
}

func (f *Firebase) Close() {
	if f != nil && f.Firestore != nil {
		_ = f.Firestore.Close()
	}
}
