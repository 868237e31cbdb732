// Package model defines the provider‑agnostic abstractions for asking a
// language model to make game decisions.
//
// Core goals:
//   - Unify streaming + non‑streaming generation behind a single interface
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (model/openai, model/anthropic) implement the Model interface so
// the model agent remains decoupled from vendor SDKs. Complete drains a
// generation into a single string.
package model
