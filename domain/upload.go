package domain

import "time"

// File is an in-memory document or image moving through the pipeline.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

// FSItem describes a stored blob.
type FSItem struct {
	ID       string    `json:"id"`
	UID      string    `json:"uid"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	IsDir    bool      `json:"is_dir"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

type KVItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type User struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
}
