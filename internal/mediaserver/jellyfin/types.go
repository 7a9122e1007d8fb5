package jellyfin

// jellyfinSystemInfo is the response from GET /System/Info.
type jellyfinSystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	OperatingSystem string `json:"OperatingSystem"`
}

// jellyfinAuthResponse is the response from POST /Users/AuthenticateByName.
type jellyfinAuthResponse struct {
	AccessToken string `json:"AccessToken"`
}

// jellyfinVirtualFolder is one entry from GET /Library/VirtualFolders.
type jellyfinVirtualFolder struct {
	Name           string `json:"Name"`
	ItemID         string `json:"ItemId"`
	CollectionType string `json:"CollectionType"`
}

// jellyfinItemsResponse carries the total count from GET /Items with Limit=0.
type jellyfinItemsResponse struct {
	TotalRecordCount int `json:"TotalRecordCount"`
}

// jellyfinSession is one entry from GET /Sessions.
type jellyfinSession struct {
	UserName        string                   `json:"UserName"`
	Client          string                   `json:"Client"`
	NowPlayingItem  *jellyfinNowPlayingItem  `json:"NowPlayingItem"`
	PlayState       jellyfinPlayState        `json:"PlayState"`
	TranscodingInfo *jellyfinTranscodingInfo `json:"TranscodingInfo"`
}

type jellyfinNowPlayingItem struct {
	Name              string                `json:"Name"`
	Type              string                `json:"Type"`
	SeriesName        string                `json:"SeriesName"`
	ParentIndexNumber int                   `json:"ParentIndexNumber"`
	IndexNumber       int                   `json:"IndexNumber"`
	RunTimeTicks      int64                 `json:"RunTimeTicks"`
	MediaStreams      []jellyfinMediaStream `json:"MediaStreams"`
}

type jellyfinMediaStream struct {
	Type    string `json:"Type"`
	Width   int    `json:"Width"`
	Height  int    `json:"Height"`
	BitRate int64  `json:"BitRate"`
}

type jellyfinPlayState struct {
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	PlayMethod    string `json:"PlayMethod"`
}

type jellyfinTranscodingInfo struct {
	Bitrate int64 `json:"Bitrate"`
}
