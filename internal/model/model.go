package model

import (
	"time"
)

// Item is a single entry yielded by the feed. Link identifies it.
type Item struct {
	Title      string
	Categories []string
	Link       string
	Date       time.Time // дата публикации в источнике
	Summary    string
}

// Record is an article that has already been summarized and sent.
type Record struct {
	ID     int64
	Title  string
	Link   string
	SentAt time.Time // assigned by the store on insert
}
