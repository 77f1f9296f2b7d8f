package models

// BGP is a BGP session configured on an exterior router port.
type BGP struct {
	PortID   string `json:"portId" validate:"required"`
	LocalAS  int    `json:"localAS" validate:"required,min=1,max=4294967295"`
	PeerAS   int    `json:"peerAS" validate:"required,min=1,max=4294967295"`
	PeerAddr string `json:"peerAddr" validate:"required,ipv4"`
}

func (BGP) Kind() Kind { return KindBGP }

func (b BGP) CollectionPath() (string, error) {
	return childPath("ports", b.PortID, "bgps")
}

func (BGP) ResourcePath(id string) string { return "/bgps/" + id }

// AdRoute is a prefix advertised over a BGP session.
type AdRoute struct {
	BGPID        string `json:"bgpId" validate:"required"`
	NwPrefix     string `json:"nwPrefix" validate:"required,ipv4"`
	PrefixLength int    `json:"prefixLength" validate:"min=0,max=32"`
}

func (AdRoute) Kind() Kind { return KindAdRoute }

func (r AdRoute) CollectionPath() (string, error) {
	return childPath("bgps", r.BGPID, "ad_routes")
}

func (AdRoute) ResourcePath(id string) string { return "/ad_routes/" + id }
