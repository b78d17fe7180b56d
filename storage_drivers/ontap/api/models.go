// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

// Subset of the ONTAP REST models used by the image cache.

type volumeSpace struct {
	Size      *uint64 `json:"size,omitempty"`
	Available *uint64 `json:"available,omitempty"`
}

type volumeRecord struct {
	UUID  string       `json:"uuid,omitempty"`
	Name  string       `json:"name,omitempty"`
	Space *volumeSpace `json:"space,omitempty"`
}

type volumeCollection struct {
	Records    []volumeRecord `json:"records"`
	NumRecords int            `json:"num_records"`
}

type volumeReference struct {
	Name string `json:"name"`
}

type fileCloneRequest struct {
	Volume          volumeReference `json:"volume"`
	SourcePath      string          `json:"source_path"`
	DestinationPath string          `json:"destination_path"`
	Overwrite       bool            `json:"overwrite_destination,omitempty"`
}

type jobLink struct {
	UUID string `json:"uuid"`
}

type jobLinkResponse struct {
	Job *jobLink `json:"job,omitempty"`
}

const (
	JobStateQueued  = "queued"
	JobStateRunning = "running"
	JobStatePaused  = "paused"
	JobStateSuccess = "success"
	JobStateFailure = "failure"
)

type jobResponse struct {
	UUID    string `json:"uuid"`
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Code    int64  `json:"code,omitempty"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}
