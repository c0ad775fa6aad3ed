package domain

import (
	"errors"

	"github.com/google/uuid"
)

var ErrScanInProgress = errors.New("an alert scan is already running for this pharmacy")

// UpsertOutcome reports what a notification upsert did to the stored row.
type UpsertOutcome int

const (
	// UpsertSkipped: the alert was already confirmed and was left alone.
	UpsertSkipped UpsertOutcome = iota
	// UpsertRefreshed: a pending alert got a new message and countdown.
	UpsertRefreshed
	UpsertInserted
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertRefreshed:
		return "refreshed"
	}
	return "skipped"
}

// AlertScanResult summarizes one pharmacy scan. Notifications holds only
// the alerts raised by this scan.
type AlertScanResult struct {
	PharmacyID       uuid.UUID       `json:"pharmacy_id"`
	MedicinesScanned int             `json:"medicines_scanned"`
	AlertsRaised     int             `json:"alerts_raised"`
	AlertsRefreshed  int             `json:"alerts_refreshed"`
	AlertsSkipped    int             `json:"alerts_skipped"`
	Notifications    []*Notification `json:"notifications"`
}
