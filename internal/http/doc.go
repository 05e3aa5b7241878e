// Package http provides HTTP handlers and middleware for the availability
// scheduler API.
//
// Every endpoint expects the acting user in the `X-User-ID` header; setting
// `X-Admin: true` marks the principal as an administrator. Authentication
// happens upstream, the headers carry the already verified identity.
//
// The router exposes the following endpoints:
//   - GET /availability/{userID}: the user's availability record.
//   - PUT /availability/{userID}: replaces the record. Owner or admin only.
//   - GET /availability/{userID}/check?date=&start=&end=: evaluates a window
//     and responds {"available","reason"}.
//   - POST /availability/{userID}/slots: adds an unavailable slot; recurring
//     slots expand immediately and the response carries "truncated" when a
//     safety cap was hit.
//   - DELETE /availability/{userID}/slots/{slotID}: removes a slot; removing
//     a recurring parent removes its generated instances.
//   - POST /conflicts: checks a proposed time for a set of users. Body:
//     {"user_ids","start","end"}.
//   - GET /slots?users=&date=&duration=: common free slots for a day.
//   - GET /events, POST /events, GET/PUT/DELETE /events/{id}: calendar
//     events exchanging the `eventDTO` payload defined in dto.go. Writes of
//     recurring events return the generated instances.
//   - GET /meeting-requests, POST /meeting-requests,
//     GET/PUT/DELETE /meeting-requests/{id}: the meeting request workflow
//     exchanging the `meetingRequestDTO` payload defined in dto.go.
//   - POST /meeting-requests/{id}/approve|deny|schedule: owner decisions;
//     schedule takes {"scheduled_date"} and rejects double-bookings with
//     409 SCHEDULE_CONFLICT.
//
// Request/response DTOs live in dto.go so tests and documentation share the
// same ground truth.
package http
