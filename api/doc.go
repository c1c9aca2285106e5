// Package api serves securities and their price history over HTTP.
package api
