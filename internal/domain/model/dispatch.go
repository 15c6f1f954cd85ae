package model

import (
	"strings"
	"time"
)

// AdapterState is the in-memory lifecycle of one platform adapter.
type AdapterState int

const (
	AdapterUninitialized AdapterState = iota
	AdapterDemoMode
	AdapterConnected
	AdapterFailed
)

func (s AdapterState) String() string {
	switch s {
	case AdapterDemoMode:
		return "demo"
	case AdapterConnected:
		return "connected"
	case AdapterFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// CanDispatch is true for the states that accept sends.
func (s AdapterState) CanDispatch() bool {
	return s == AdapterDemoMode || s == AdapterConnected
}

// BotIdentity is who the bot is logged in as.
type BotIdentity struct {
	Name          string `json:"username"`
	ID            string `json:"id"`
	Discriminator string `json:"discriminator,omitempty"`
}

// DemoIdentity is reported while no real connection exists.
var DemoIdentity = BotIdentity{Name: "Demo Bot", ID: "demo_mode"}

// AdapterStatus is the status snapshot reported to callers.
type AdapterStatus struct {
	Platform  Platform     `json:"platform"`
	State     string       `json:"state"`
	Connected bool         `json:"connected"`
	Demo      bool         `json:"demo"`
	Identity  *BotIdentity `json:"bot,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// SendResult is returned for every successful dispatch, real or synthetic.
type SendResult struct {
	Success     bool      `json:"success"`
	MessageID   string    `json:"messageId"`
	RecipientID string    `json:"userId"`
	Text        string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Demo        bool      `json:"demo,omitempty"`
}

// DemoMessagePrefix marks synthetic delivery identifiers.
const DemoMessagePrefix = "demo_"

// IsSyntheticMessageID tells demo-mode identifiers apart from platform ones.
func IsSyntheticMessageID(id string) bool {
	return strings.HasPrefix(id, DemoMessagePrefix)
}
