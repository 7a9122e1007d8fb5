package plex

// Plex wraps every response in a MediaContainer envelope. Only the
// fields the dashboard consumes are mapped here.

type plexRootResponse struct {
	MediaContainer plexRoot `json:"MediaContainer"`
}

type plexRoot struct {
	FriendlyName string `json:"friendlyName"`
	Version      string `json:"version"`
	Platform     string `json:"platform"`
}

type plexIdentityResponse struct {
	MediaContainer plexIdentity `json:"MediaContainer"`
}

type plexIdentity struct {
	MachineIdentifier string `json:"machineIdentifier"`
}

type plexSessionsResponse struct {
	MediaContainer plexSessionContainer `json:"MediaContainer"`
}

type plexSessionContainer struct {
	Size     int            `json:"size"`
	Metadata []plexMetadata `json:"Metadata"`
}

type plexMetadata struct {
	Title            string                `json:"title"`
	Type             string                `json:"type"`
	GrandparentTitle string                `json:"grandparentTitle"`
	ParentIndex      int                   `json:"parentIndex"`
	Index            int                   `json:"index"`
	ViewOffset       int64                 `json:"viewOffset"`
	Duration         int64                 `json:"duration"`
	User             plexUser              `json:"User"`
	Player           plexPlayer            `json:"Player"`
	Media            []plexMedia           `json:"Media"`
	TranscodeSession *plexTranscodeSession `json:"TranscodeSession"`
}

type plexUser struct {
	Title string `json:"title"`
}

type plexPlayer struct {
	Product string `json:"product"`
	State   string `json:"state"`
}

type plexMedia struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Bitrate         int64  `json:"bitrate"`
	VideoResolution string `json:"videoResolution"`
}

type plexTranscodeSession struct {
	VideoDecision string `json:"videoDecision"`
}

type plexSectionsResponse struct {
	MediaContainer plexSectionContainer `json:"MediaContainer"`
}

type plexSectionContainer struct {
	Directory []plexDirectory `json:"Directory"`
}

type plexDirectory struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type plexCountResponse struct {
	MediaContainer plexCountContainer `json:"MediaContainer"`
}

type plexCountContainer struct {
	TotalSize int `json:"totalSize"`
}
