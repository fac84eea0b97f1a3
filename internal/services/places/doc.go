// Package places hosts the places service: accounts, geocoded place records
// and the coordinator that keeps each user's place set consistent with the
// creator recorded on every place.
package places
