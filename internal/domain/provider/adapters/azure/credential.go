package azure

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// tokenRefreshBuffer is the time before token expiration to trigger a refresh.
const tokenRefreshBuffer = 5 * time.Minute

// cognitiveServicesScope is the Entra scope for Azure AI endpoints.
const cognitiveServicesScope = "https://cognitiveservices.azure.com/.default"

// Credential applies an Entra ID bearer token to outbound Azure requests.
type Credential struct {
	cred        azcore.TokenCredential
	mu          sync.RWMutex
	cachedToken *azcore.AccessToken
}

// NewCredential uses a client secret when all three values are set, and the default
// credential chain (managed identity, CLI, environment) otherwise.
func NewCredential(tenantID, clientID, clientSecret string) (*Credential, error) {
	var (
		cred azcore.TokenCredential
		err  error
	)
	if tenantID != "" && clientID != "" && clientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return &Credential{cred: cred}, nil
}

// NewCredentialFrom wraps an existing token credential.
func NewCredentialFrom(cred azcore.TokenCredential) *Credential {
	return &Credential{cred: cred}
}

// Apply adds the Azure AD token to the request.
func (c *Credential) Apply(ctx context.Context, req *http.Request) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to get Azure token: %w", err)
	}
	req.Header.Del("api-key")
	req.Header.Set("Authorization", "Bearer "+token.Token)
	return nil
}

func (c *Credential) getToken(ctx context.Context) (*azcore.AccessToken, error) {
	c.mu.RLock()
	if c.cachedToken != nil && c.cachedToken.ExpiresOn.After(time.Now().Add(tokenRefreshBuffer)) {
		token := c.cachedToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedToken != nil && c.cachedToken.ExpiresOn.After(time.Now().Add(tokenRefreshBuffer)) {
		return c.cachedToken, nil
	}

	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{
		Scopes: []string{cognitiveServicesScope},
	})
	if err != nil {
		return nil, err
	}
	c.cachedToken = &token
	return &token, nil
}
