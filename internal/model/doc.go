// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: closed enumeration of speakers (user, assistant, system)
//   - Message: the {role, content} pair sent to a generation provider
//   - Turn: one stored conversation entry with raw and rendered text
//   - Conversation: ordered turns owned by one session
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Reset(model.NewAssistantTurn(greeting, greetingHTML))
//	conv.Append(model.NewUserTurn("vpn keeps dropping"), reply)
//	ctx := conv.Window(15)
package model
