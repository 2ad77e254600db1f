package ceremony_test

import (
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fedvault/internal/ceremony"
	"fedvault/internal/ceremony/mocks"
	"fedvault/internal/platform/logger"
	"fedvault/internal/vault"
	"fedvault/pkg/platform/sentinel"
)

const chromeOnMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type AdapterSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	api     *mocks.MockVaultCeremonyAPI
	auth    *mocks.MockAuthenticator
	adapter *ceremony.Adapter
}

func TestAdapterSuite(t *testing.T) {
	suite.Run(t, new(AdapterSuite))
}

func (s *AdapterSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.api = mocks.NewMockVaultCeremonyAPI(s.ctrl)
	s.auth = mocks.NewMockAuthenticator(s.ctrl)
	s.adapter = ceremony.NewAdapter(s.api, s.auth, chromeOnMac, logger.New())
}

func (s *AdapterSuite) TestRegisterHappyPath() {
	ctx := s.T().Context()
	initResp := vault.RegisterInitResponse{
		RegisterSession: "reg-1",
		AttestationPayload: vault.AttestationPayload{
			PublicKeyCredentialCreationOptions: protocol.PublicKeyCredentialCreationOptions{
				Challenge: protocol.URLEncodedBase64("challenge"),
			},
			CredentialUUID: "cred-uuid",
		},
	}
	att := ceremony.AttestationResponse{
		CredentialID:    protocol.URLEncodedBase64("cred-id"),
		ClientData:      protocol.URLEncodedBase64("client-data"),
		AttestationData: protocol.URLEncodedBase64("att-data"),
	}

	s.api.EXPECT().
		RegisterInit(ctx, vault.RegisterInitRequest{
			Username: "user@example.com",
			Options:  vault.RegisterInitOptions{EmailToken: "email-jwt"},
		}).
		Return(initResp, nil)
	s.auth.EXPECT().Create(ctx, initResp.AttestationPayload).Return(att, nil)
	s.api.EXPECT().
		RegisterComplete(ctx, gomock.Cond(func(req vault.RegisterCompleteRequest) bool {
			return req.Username == "user@example.com" &&
				req.CredentialUUID == "cred-uuid" &&
				string(req.Challenge) == "challenge" &&
				req.DeviceName == "Mac OS X Chrome"
		})).
		Return(vault.AuthResult{JWT: "ceremony-jwt"}, nil)

	outcome, err := s.adapter.Register(ctx, "user@example.com", ceremony.RegisterOptions{EmailToken: "email-jwt"})
	s.Require().NoError(err)
	s.Equal("ceremony-jwt", outcome.JWT)
	s.Equal("reg-1", outcome.RegisterSession)
}

func (s *AdapterSuite) TestRegisterAbortKeepsRegisterSession() {
	ctx := s.T().Context()
	s.api.EXPECT().
		RegisterInit(ctx, gomock.Any()).
		Return(vault.RegisterInitResponse{RegisterSession: "reg-1"}, nil)
	s.auth.EXPECT().
		Create(ctx, gomock.Any()).
		Return(ceremony.AttestationResponse{}, ceremony.ErrAborted)

	outcome, err := s.adapter.Register(ctx, "user@example.com", ceremony.RegisterOptions{})
	s.Require().ErrorIs(err, ceremony.ErrAborted)
	s.Equal("reg-1", outcome.RegisterSession, "retry must be able to continue the exchange")
}

func (s *AdapterSuite) TestRegisterContinuesPriorSession() {
	ctx := s.T().Context()
	s.api.EXPECT().
		RegisterInit(ctx, gomock.Cond(func(req vault.RegisterInitRequest) bool {
			return req.Options.RegisterSession == "reg-1"
		})).
		Return(vault.RegisterInitResponse{RegisterSession: "reg-1"}, nil)
	s.auth.EXPECT().Create(ctx, gomock.Any()).Return(ceremony.AttestationResponse{}, nil)
	s.api.EXPECT().RegisterComplete(ctx, gomock.Any()).Return(vault.AuthResult{JWT: "jwt"}, nil)

	outcome, err := s.adapter.Register(ctx, "user@example.com",
		ceremony.RegisterOptions{RegisterSession: "reg-1"})
	s.Require().NoError(err)
	s.Equal("jwt", outcome.JWT)
}

func (s *AdapterSuite) TestAuthenticateHappyPath() {
	ctx := s.T().Context()
	initResp := vault.AuthenticateInitResponse{
		AssertionPayload: protocol.PublicKeyCredentialRequestOptions{
			Challenge: protocol.URLEncodedBase64("challenge"),
		},
	}
	assertion := ceremony.AssertionResponse{
		CredentialID: protocol.URLEncodedBase64("cred-id"),
		Signature:    protocol.URLEncodedBase64("sig"),
	}

	s.api.EXPECT().
		AuthenticateInit(ctx, vault.AuthenticateInitRequest{Username: "user@example.com", Session: "sess-1"}).
		Return(initResp, nil)
	s.auth.EXPECT().Get(ctx, initResp.AssertionPayload).Return(assertion, nil)
	s.api.EXPECT().
		AuthenticateComplete(ctx, gomock.Cond(func(req vault.AuthenticateCompleteRequest) bool {
			return string(req.Challenge) == "challenge" && string(req.Signature) == "sig"
		})).
		Return(vault.AuthResult{JWT: "ceremony-jwt"}, nil)

	jwt, err := s.adapter.Authenticate(ctx, "user@example.com", "sess-1")
	s.Require().NoError(err)
	s.Equal("ceremony-jwt", jwt)
}

func (s *AdapterSuite) TestAuthenticateUnknownUser() {
	ctx := s.T().Context()
	s.api.EXPECT().
		AuthenticateInit(ctx, gomock.Any()).
		Return(vault.AuthenticateInitResponse{}, sentinel.ErrNotFound)

	_, err := s.adapter.Authenticate(ctx, "nobody@example.com", "sess-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *AdapterSuite) TestAuthenticateAbort() {
	ctx := s.T().Context()
	s.api.EXPECT().AuthenticateInit(ctx, gomock.Any()).Return(vault.AuthenticateInitResponse{}, nil)
	s.auth.EXPECT().Get(ctx, gomock.Any()).Return(ceremony.AssertionResponse{}, ceremony.ErrAborted)

	_, err := s.adapter.Authenticate(ctx, "user@example.com", "sess-1")
	s.ErrorIs(err, ceremony.ErrAborted)
}
