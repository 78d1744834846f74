package google

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// API scopes requested for the service account. Drive and Docs are
// read-only; Sheets needs write access for campaign status write-back.
var scopes = []string{
	drive.DriveReadonlyScope,
	docs.DocumentsReadonlyScope,
	sheets.SpreadsheetsScope,
}

// Services bundles the Google API clients built from one credential.
type Services struct {
	Drive  *drive.Service
	Docs   *docs.Service
	Sheets *sheets.Service
}

// NewServices creates Drive, Docs and Sheets clients from service
// account credentials JSON.
func NewServices(ctx context.Context, credentialsJSON []byte) (*Services, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("google: credentials JSON is empty")
	}

	opts := []option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(scopes...),
	}

	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	docsSvc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create docs service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Services{Drive: driveSvc, Docs: docsSvc, Sheets: sheetsSvc}, nil
}

// NewServicesFromFile creates the clients from a credentials file path.
func NewServicesFromFile(ctx context.Context, path string) (*Services, error) {
	credentialsJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	return NewServices(ctx, credentialsJSON)
}
