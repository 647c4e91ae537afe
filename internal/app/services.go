package app

import (
	"fmt"
	"sync"

	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/internal/template"
	"github.com/pijaz/pijaz-go/pkg/logging"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

// Services holds the components built from one configuration.
// A reload replaces the whole set, including cached tokens.
type Services struct {
	// Manager talks to the API and render servers.
	Manager *pijaz.ServerManager

	// Templates expands parameter values before each render.
	Templates *template.Engine

	tokens *tokenCache
}

// InitializeServices builds the client from the client section of cfg.
func InitializeServices(cfg *config.PijazConfig, opts ...pijaz.Option) (*Services, error) {
	opts = append([]pijaz.Option{pijaz.WithLogger(logging.Logger("Client"))}, opts...)

	manager, err := pijaz.NewServerManager(cfg.Client.ClientSettings(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create server manager: %w", err)
	}

	logging.Debug("Services", "Client ready for app %s (api %s, render %s)",
		manager.AppID(), manager.APIServerURL(), manager.RenderServerURL())

	return &Services{
		Manager:   manager,
		Templates: template.New(),
		tokens:    newTokenCache(),
	}, nil
}

// tokenCache shares access tokens between the short-lived products created
// per render. get-token depends on the xml document as well as the workflow,
// so both make up the key. The server manager still validates every token
// before use.
type tokenCache struct {
	mu     sync.Mutex
	tokens map[tokenKey]*pijaz.AccessToken
}

type tokenKey struct {
	workflow string
	xml      string
}

func newTokenCache() *tokenCache {
	return &tokenCache{tokens: make(map[tokenKey]*pijaz.AccessToken)}
}

func (c *tokenCache) get(workflow, xml string) *pijaz.AccessToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens[tokenKey{workflow: workflow, xml: xml}]
}

func (c *tokenCache) put(token *pijaz.AccessToken) {
	if token == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[tokenKey{workflow: token.Workflow, xml: token.XML}] = token
}
