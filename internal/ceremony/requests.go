package ceremony

import "fedvault/internal/vault"

func registerInitRequest(username string, opts RegisterOptions) vault.RegisterInitRequest {
	return vault.RegisterInitRequest{
		Username: username,
		Options: vault.RegisterInitOptions{
			EmailToken:      opts.EmailToken,
			RegisterSession: opts.RegisterSession,
			FederatedID:     opts.FederatedID,
		},
	}
}

func completeRegisterRequest(username, deviceName string, init vault.RegisterInitResponse, att AttestationResponse) vault.RegisterCompleteRequest {
	return vault.RegisterCompleteRequest{
		Username:        username,
		DeviceName:      deviceName,
		Challenge:       init.AttestationPayload.Challenge,
		CredentialUUID:  init.AttestationPayload.CredentialUUID,
		CredentialID:    att.CredentialID,
		ClientData:      att.ClientData,
		AttestationData: att.AttestationData,
	}
}

func authInitRequest(username, sessionID string) vault.AuthenticateInitRequest {
	return vault.AuthenticateInitRequest{Username: username, Session: sessionID}
}

func completeAuthRequest(username string, init vault.AuthenticateInitResponse, assertion AssertionResponse) vault.AuthenticateCompleteRequest {
	return vault.AuthenticateCompleteRequest{
		Username:          username,
		Challenge:         init.AssertionPayload.Challenge,
		CredentialID:      assertion.CredentialID,
		ClientData:        assertion.ClientData,
		AuthenticatorData: assertion.AuthenticatorData,
		Signature:         assertion.Signature,
	}
}
