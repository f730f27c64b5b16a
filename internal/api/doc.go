// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Modia backend.
//
// The backend answers chat questions with retrieval-augmented generation,
// manages LLM providers and source repositories, and rebuilds its vector
// database. This package only speaks its JSON contract.
//
// # Key Types
//
//   - Client: thread-safe HTTP client with optional rate limiting
//   - ClientError: typed error carrying ErrorType and HTTP status
//   - AskRequest / AskResponse: chat round trip
//   - Provider: one entry of the provider catalog
//   - Step / OperationResponse: progress of sync and rebuild
//
// # Error Model
//
// Non-2xx responses become a ClientError whose message is the body's
// "detail" field, or "HTTP <code>" when the body has none. A 409 maps to
// ErrTypeBusy. Successful bodies that fail to decode are treated as empty.
//
// # Usage
//
//	client := api.NewClient("http://127.0.0.1:8000")
//	resp, err := client.Ask(ctx, api.AskRequest{Message: "hi", TopK: 5})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Answer)
package api
