// Package identity resolves an opaque numeric user id to the display identity
// the external provider holds for it. Lookups go through an injected cache
// with a 5 minute freshness window; a stale entry is refreshed on the next
// read, there is no background sweep.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"groupchat-backend/internal/models"

	"go.uber.org/zap"
)

const CacheTTL = 5 * time.Minute
const DefaultCacheSize = 1024

type Cache interface {
	Get(userID int64) (models.Identity, bool)
	Set(userID int64, identity models.Identity)
}

type Resolver struct {
	cache       Cache
	providerURL string
	httpClient  *http.Client
	sugar       *zap.SugaredLogger
}

func NewResolver(cache Cache, providerURL string, sugar *zap.SugaredLogger) *Resolver {
	return &Resolver{
		cache:       cache,
		providerURL: providerURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		sugar:       sugar,
	}
}

// Resolve returns the cached identity when fresh, otherwise asks the
// provider. A provider failure degrades to a placeholder identity for this
// one request instead of failing the caller; the placeholder is not cached.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (models.Identity, error) {
	if identity, ok := r.cache.Get(userID); ok {
		return identity, nil
	}

	identity, err := r.fetch(ctx, userID)
	if err != nil {
		r.sugar.Warnf("Couldn't resolve user ID [%d] from identity provider: %v", userID, err)
		return placeholder(userID), nil
	}

	r.cache.Set(userID, identity)
	return identity, nil
}

func placeholder(userID int64) models.Identity {
	return models.Identity{
		UID:      userID,
		Username: fmt.Sprintf("User#%d", userID),
	}
}

func (r *Resolver) fetch(ctx context.Context, userID int64) (models.Identity, error) {
	if r.providerURL == "" {
		// no provider configured, every user gets the placeholder identity
		return placeholder(userID), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/users/%d", r.providerURL, userID), nil)
	if err != nil {
		return models.Identity{}, err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return models.Identity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Identity{}, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var identity models.Identity
	err = json.NewDecoder(resp.Body).Decode(&identity)
	if err != nil {
		return models.Identity{}, err
	}

	identity.UID = userID
	return identity, nil
}
