package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-hub/apperrors"
	"order-hub/models"
	"order-hub/repository"
	"order-hub/vault"
)

// CreateProviderRequest registers a payment provider account. Secret fields
// are encrypted before they hit storage.
type CreateProviderRequest struct {
	Name          string                 `json:"name" binding:"required"`
	Provider      models.PaymentProvider `json:"provider" binding:"required"`
	Enabled       *bool                  `json:"enabled"`
	APIKey        *string                `json:"api_key"`
	APISecret     *string                `json:"api_secret"`
	WebhookSecret *string                `json:"webhook_secret"`
	Config        models.JSONMap         `json:"config"`
}

// UpdateProviderRequest carries partial provider updates.
type UpdateProviderRequest struct {
	Name          *string        `json:"name"`
	Enabled       *bool          `json:"enabled"`
	APIKey        *string        `json:"api_key"`
	APISecret     *string        `json:"api_secret"`
	WebhookSecret *string        `json:"webhook_secret"`
	Config        models.JSONMap `json:"config"`
}

// ProviderService manages provider accounts and their encrypted
// credentials. All values leaving this service have secrets masked.
type ProviderService struct {
	repo   repository.ProviderRepository
	vault  *vault.Vault
	stripe *StripeService
	client *http.Client
	logger *zap.Logger
}

func NewProviderService(repo repository.ProviderRepository, v *vault.Vault, stripe *StripeService, logger *zap.Logger) *ProviderService {
	return &ProviderService{
		repo:   repo,
		vault:  v,
		stripe: stripe,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (s *ProviderService) GetAllProviders(ctx context.Context, includeDisabled bool) ([]models.Provider, error) {
	providers, err := s.repo.FindAll(ctx, includeDisabled)
	if err != nil {
		return nil, err
	}
	for i := range providers {
		maskProvider(&providers[i])
	}
	return providers, nil
}

func (s *ProviderService) GetProviderByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	maskProvider(provider)
	return provider, nil
}

func (s *ProviderService) CreateProvider(ctx context.Context, req *CreateProviderRequest) (*models.Provider, error) {
	existing, err := s.repo.FindByTypeAndName(ctx, req.Provider, req.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Validation("Provider with name '%s' already exists", req.Name)
	}

	provider := &models.Provider{
		Name:     req.Name,
		Provider: req.Provider,
		Enabled:  true,
		Config:   req.Config,
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}

	if err := s.encryptInto(provider, req.APIKey, req.APISecret, req.WebhookSecret); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, provider); err != nil {
		return nil, err
	}

	s.logger.Info("Provider created",
		zap.String("provider_id", provider.ID.String()),
		zap.String("type", string(provider.Provider)),
		zap.String("name", provider.Name),
	)

	maskProvider(provider)
	return provider, nil
}

func (s *ProviderService) UpdateProvider(ctx context.Context, id uuid.UUID, req *UpdateProviderRequest) (*models.Provider, error) {
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		provider.Name = *req.Name
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}
	if req.Config != nil {
		provider.Config = req.Config
	}
	if err := s.encryptInto(provider, req.APIKey, req.APISecret, req.WebhookSecret); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, provider); err != nil {
		return nil, err
	}

	maskProvider(provider)
	return provider, nil
}

func (s *ProviderService) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// TestProviderConnection decrypts the stored API key and performs one
// provider call. The result is persisted and returned; connectivity
// failures are surfaced with a descriptive message and never retried.
func (s *ProviderService) TestProviderConnection(ctx context.Context, id uuid.UUID) (*models.ProviderTestResult, error) {
	provider, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var result *models.ProviderTestResult
	switch provider.Provider {
	case models.ProviderStripe:
		result = s.testStripe(provider)
	case models.ProviderBTCPay:
		result = s.testBTCPay(ctx, provider)
	default:
		result = &models.ProviderTestResult{
			Success:  false,
			Message:  fmt.Sprintf("Connectivity test not supported for provider type %s", provider.Provider),
			TestedAt: time.Now().UTC(),
		}
	}

	status := models.ProviderTestFailed
	if result.Success {
		status = models.ProviderTestSuccess
	}
	if err := s.repo.UpdateTestStatus(ctx, id, status, result.Message); err != nil {
		s.logger.Warn("Failed to persist provider test status",
			zap.String("provider_id", id.String()),
			zap.Error(err),
		)
	}

	if !result.Success {
		return result, apperrors.ProviderConnectivity(result.Message, nil)
	}
	return result, nil
}

func (s *ProviderService) testStripe(provider *models.Provider) *models.ProviderTestResult {
	now := time.Now().UTC()
	if provider.APIKey == nil {
		return &models.ProviderTestResult{Success: false, Message: "API key not configured", TestedAt: now}
	}

	apiKey, err := s.vault.Decrypt(*provider.APIKey)
	if err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}

	accountID, mode, err := s.stripe.TestConnection(apiKey)
	if err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}

	return &models.ProviderTestResult{
		Success: true,
		Message: "Connected successfully",
		ProviderInfo: map[string]any{
			"account_id": accountID,
			"mode":       mode,
		},
		TestedAt: now,
	}
}

func (s *ProviderService) testBTCPay(ctx context.Context, provider *models.Provider) *models.ProviderTestResult {
	now := time.Now().UTC()

	serverURL, _ := provider.Config["server_url"].(string)
	storeID, _ := provider.Config["store_id"].(string)
	if provider.APIKey == nil || serverURL == "" || storeID == "" {
		return &models.ProviderTestResult{Success: false, Message: "Missing configuration", TestedAt: now}
	}

	apiKey, err := s.vault.Decrypt(*provider.APIKey)
	if err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}

	url := fmt.Sprintf("%s/api/v1/stores/%s", serverURL, storeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}
	req.Header.Set("Authorization", "token "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &models.ProviderTestResult{Success: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode), TestedAt: now}
	}

	var store struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&store); err != nil {
		return &models.ProviderTestResult{Success: false, Message: err.Error(), TestedAt: now}
	}

	return &models.ProviderTestResult{
		Success:      true,
		Message:      "Connected successfully",
		ProviderInfo: map[string]any{"store_id": store.ID},
		TestedAt:     now,
	}
}

func (s *ProviderService) encryptInto(provider *models.Provider, apiKey, apiSecret, webhookSecret *string) error {
	encrypt := func(plain *string) (*string, error) {
		if plain == nil || *plain == "" {
			return nil, nil
		}
		enc, err := s.vault.Encrypt(*plain)
		if err != nil {
			return nil, err
		}
		return &enc, nil
	}

	if apiKey != nil {
		enc, err := encrypt(apiKey)
		if err != nil {
			return err
		}
		provider.APIKey = enc
	}
	if apiSecret != nil {
		enc, err := encrypt(apiSecret)
		if err != nil {
			return err
		}
		provider.APISecret = enc
	}
	if webhookSecret != nil {
		enc, err := encrypt(webhookSecret)
		if err != nil {
			return err
		}
		provider.WebhookSecret = enc
	}
	return nil
}

func maskProvider(p *models.Provider) {
	p.APIKey = vault.Mask(p.APIKey)
	p.APISecret = vault.Mask(p.APISecret)
	p.WebhookSecret = vault.Mask(p.WebhookSecret)
}
