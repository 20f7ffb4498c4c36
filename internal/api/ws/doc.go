// Package ws streams tracker notifications to UI clients over WebSocket.
package ws
