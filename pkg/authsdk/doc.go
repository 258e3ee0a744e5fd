/*
Package authsdk is a client for the federation's authentication API, the
service that checks credentials and issues the access token every portal
accepts.

# Overview

The API exposes two calls and the client mirrors them:

	client := authsdk.NewSDKClient("https://api.example.edu")

	// Exchange credentials for an access token and a refresh token
	tokens, err := client.Login(ctx, email, password)

	// Trade a refresh token for a new access token
	tokens, err = client.Refresh(ctx, accessToken, refreshToken)

SDKClient holds no credentials. Callers pass them on every request and decide
where the returned tokens are stored; the front door keeps them in its session
store.

# Refresh Header

The refresh token travels in a request header, "refreshtoken" unless the
deployment says otherwise:

	client.RefreshHeader = "x-refresh-token"

The access token is sent as a bearer token on the same request.

# Response Envelope

Both calls answer with the same JSON envelope:

	{
	  "success": true,
	  "access_token": "eyJ...",
	  "refresh_token": "opaque",
	  "token_type": "Bearer",
	  "expires_in": 3600
	}

A refresh response may omit refresh_token, in which case the caller keeps the
one it already holds. expires_in is accepted as a number or a numeric string.

# Error Handling

Any non-2xx status, or a 2xx with "success": false, is returned as *APIError
carrying the status code and a message fit to show the user:

	tokens, err := client.Login(ctx, email, password)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		// wrong email or password
	}

A login failure with no message of its own reports DefaultLoginMessage.

Sentinel errors cover responses that cannot be used at all:

  - ErrMissingAccessToken: the API reported success without a token
  - ErrMissingCredentials: Refresh was called without both tokens

Transport failures (DNS, connection refused, timeouts) are returned wrapped and
are not *APIError.

# Timeouts

NewSDKClient sets a 10 second timeout on its http.Client. Replace HTTPClient to
change it, and pass a context to bound a single call.
*/
package authsdk
