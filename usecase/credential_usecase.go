package usecase

import (
	"context"
	"fmt"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"
)

type ICredentialUsecase interface {
	Connect(ctx context.Context, tenantID string, req dto.ConnectRequest) (*model.SocialConnection, error)
	ActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error)
	Decrypt(conn *model.SocialConnection) (*model.Credentials, error)
	// SweepExpiring deactivates expired connections and warns about ones expiring within window.
	SweepExpiring(ctx context.Context, window time.Duration) (expired int, expiring int, err error)
}

type credentialUsecase struct {
	connections repository.ISocialConnection
	cipher      repository.ICipher
	notifier    repository.INotifier
	admins      repository.ITenantAdmin
	now         func() time.Time
}

func NewCredentialUsecase(connections repository.ISocialConnection, cipher repository.ICipher, notifier repository.INotifier, admins repository.ITenantAdmin) ICredentialUsecase {
	return &credentialUsecase{
		connections: connections,
		cipher:      cipher,
		notifier:    notifier,
		admins:      admins,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (u *credentialUsecase) Connect(ctx context.Context, tenantID string, req dto.ConnectRequest) (*model.SocialConnection, error) {
	platform, ok := model.ParsePlatform(req.Platform)
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Platform, model.ErrUnsupportedPlatform)
	}
	access, err := u.cipher.Encrypt(req.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypt access token: %w", err)
	}
	conn := &model.SocialConnection{
		TenantID:             tenantID,
		Platform:             platform,
		AccountID:            req.AccountID,
		AccountName:          req.AccountName,
		PageID:               req.PageID,
		AccessTokenEncrypted: access,
		TokenExpiry:          req.TokenExpiry,
		Scopes:               req.Scopes,
	}
	if req.RefreshToken != nil && *req.RefreshToken != "" {
		refresh, err := u.cipher.Encrypt(*req.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypt refresh token: %w", err)
		}
		conn.RefreshTokenEncrypted = &refresh
	}
	if err := u.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}
	logger.GetLogger().
		WithField("tenant_id", tenantID).
		WithField("platform", platform).
		WithField("account_id", req.AccountID).
		Info("Connection stored")
	return conn, nil
}

func (u *credentialUsecase) ActiveConnection(ctx context.Context, tenantID string, platform model.Platform) (*model.SocialConnection, error) {
	return u.connections.GetActiveConnection(ctx, tenantID, platform)
}

func (u *credentialUsecase) Decrypt(conn *model.SocialConnection) (*model.Credentials, error) {
	access, err := u.cipher.Decrypt(conn.AccessTokenEncrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt access token for connection %d: %w", conn.ID, err)
	}
	creds := &model.Credentials{Platform: conn.Platform, AccountID: conn.AccountID, AccessToken: access}
	if conn.PageID != nil {
		creds.PageID = *conn.PageID
	}
	if conn.RefreshTokenEncrypted != nil {
		if creds.RefreshToken, err = u.cipher.Decrypt(*conn.RefreshTokenEncrypted); err != nil {
			return nil, fmt.Errorf("decrypt refresh token for connection %d: %w", conn.ID, err)
		}
	}
	return creds, nil
}

func (u *credentialUsecase) SweepExpiring(ctx context.Context, window time.Duration) (int, int, error) {
	now := u.now()
	conns, err := u.connections.ListExpiring(ctx, now.Add(window))
	if err != nil {
		return 0, 0, err
	}

	var expired, expiring int
	for _, conn := range conns {
		lg := logger.GetLogger().
			WithField("tenant_id", conn.TenantID).
			WithField("platform", conn.Platform).
			WithField("connection_id", conn.ID)

		kind := model.NotificationConnectionExpiring
		if conn.IsExpired(now) {
			if err := u.connections.Deactivate(ctx, conn.ID); err != nil {
				lg.WithField("error", err).Error("Error while deactivating expired connection")
				continue
			}
			kind = model.NotificationConnectionExpired
			expired++
		} else {
			expiring++
		}

		recipient, err := u.admins.GetAdmin(ctx, conn.TenantID)
		if err != nil {
			lg.WithField("error", err).Warn("Could not resolve tenant admin")
		}
		payload := map[string]interface{}{
			"connection_id": conn.ID,
			"platform":      string(conn.Platform),
			"account_id":    conn.AccountID,
		}
		if conn.AccountName != nil {
			payload["account_name"] = *conn.AccountName
		}
		if conn.TokenExpiry != nil {
			payload["token_expiry"] = conn.TokenExpiry.UTC().Format(time.RFC3339)
		}
		u.notifier.Notify(ctx, model.Notification{
			Kind:      kind,
			TenantID:  conn.TenantID,
			Recipient: recipient,
			Payload:   payload,
			CreatedAt: now,
		})
	}
	return expired, expiring, nil
}
