package model

import "time"

// RequestStatus is the lifecycle state of an emergency request. Transitions
// are one-way; rejected and arrived are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
	RequestArrived  RequestStatus = "arrived"
)

// EmergencyRequest is one requester's call for help directed at one hospital.
type EmergencyRequest struct {
	ID           string         `json:"id"`
	RequesterID  string         `json:"requesterId"`
	Location     Location       `json:"location"`
	Severity     Severity       `json:"severity"`
	Requirements RequirementSet `json:"requirements"`
	Status       RequestStatus  `json:"status"`
	HolderID     string         `json:"holderId"`
	CreatedAt    time.Time      `json:"createdAt"`
}
