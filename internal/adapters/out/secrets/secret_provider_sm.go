// internal/adapters/out/secrets/secret_provider_sm.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var ErrNotConfigured = errors.New("secrets: secret manager provider not configured")

type accessFunc func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error)

// ProviderSM reads string secrets (API keys) from Secret Manager.
type ProviderSM struct {
	access    accessFunc
	projectID string
}

func NewProviderSM(sm *secretmanager.Client, projectID string) *ProviderSM {
	if sm == nil {
		return &ProviderSM{projectID: projectID}
	}
	return &ProviderSM{
		access: func(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest) (*secretmanagerpb.AccessSecretVersionResponse, error) {
			return sm.AccessSecretVersion(ctx, req)
		},
		projectID: projectID,
	}
}

// ResourceName expands ref into a secret version resource name.
//
//	sendgrid-api-key                          -> projects/{p}/secrets/sendgrid-api-key/versions/latest
//	sendgrid-api-key:3                        -> projects/{p}/secrets/sendgrid-api-key/versions/3
//	projects/x/secrets/y[/versions/z]         -> as is (+ /versions/latest)
func ResourceName(projectID, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("secrets: secret ref is empty")
	}
	if strings.HasPrefix(ref, "projects/") {
		if strings.Contains(ref, "/versions/") {
			return ref, nil
		}
		return strings.TrimRight(ref, "/") + "/versions/latest", nil
	}

	prj := strings.TrimSpace(projectID)
	if prj == "" {
		return "", errors.New("secrets: projectID is empty")
	}
	name, ver, ok := strings.Cut(ref, ":")
	if !ok || strings.TrimSpace(ver) == "" {
		ver = "latest"
	}
	return "projects/" + prj + "/secrets/" + strings.TrimSpace(name) + "/versions/" + strings.TrimSpace(ver), nil
}

// Get returns the trimmed payload of ref.
func (p *ProviderSM) Get(ctx context.Context, ref string) (string, error) {
	if p == nil || p.access == nil {
		return "", ErrNotConfigured
	}
	name, err := ResourceName(p.projectID, ref)
	if err != nil {
		return "", err
	}

	resp, err := p.access(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("secrets: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secrets: empty payload (%s)", name)
	}
	v := strings.TrimSpace(string(resp.Payload.Data))
	if v == "" {
		return "", fmt.Errorf("secrets: empty payload (%s)", name)
	}
	return v, nil
}
