// Package google provides Google Workspace API access: Drive metadata,
// Docs and Sheets content extraction, and the outreach contact sheet
// store. All access is server-to-server via a service account.
package google
