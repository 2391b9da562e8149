// Package notify delivers delay notices to a Discord incoming webhook.
package notify
