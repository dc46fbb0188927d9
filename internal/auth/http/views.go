package http

import (
	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
)

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:                           u.ID,
		Email:                        u.Email,
		FullName:                     u.FullName,
		IsActive:                     u.IsActive,
		AuthProvider:                 u.AuthProvider,
		LastLoginAt:                  u.LastLoginAt,
		LastLoginIP:                  u.LastLoginIP,
		Is2FAEnabled:                 u.MFAEnabled,
		SecurityNotificationsEnabled: u.SecurityNotificationsEnabled,
		CreatedAt:                    u.CreatedAt,
	}
}

func sessionResponses(views []service.SessionView) []authsdk.SessionResponse {
	out := make([]authsdk.SessionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, authsdk.SessionResponse{
			ID:              v.ID,
			DeviceType:      v.DeviceType,
			BrowserName:     v.BrowserName,
			BrowserVersion:  v.BrowserVersion,
			OSName:          v.OSName,
			OSVersion:       v.OSVersion,
			IPAddress:       v.IPAddress,
			LocationCity:    v.LocationCity,
			LocationCountry: v.LocationCountry,
			CreatedAt:       v.CreatedAt,
			LastActiveAt:    v.LastActiveAt,
			IsCurrent:       v.IsCurrent,
		})
	}
	return out
}

func eventResponses(events []domain.SecurityEvent) []authsdk.EventResponse {
	out := make([]authsdk.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, authsdk.EventResponse{
			ID:        e.ID,
			Type:      e.Type,
			Metadata:  e.Metadata,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func tokenResponse(res service.LoginResult) authsdk.TokenResponse {
	if res.RequiresTwoFactor {
		return authsdk.TokenResponse{RequiresTwoFactor: true, ChallengeToken: res.ChallengeToken}
	}
	return authsdk.TokenResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresIn:   int(res.ExpiresIn),
	}
}
