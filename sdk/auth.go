package sdk

import "net/http"

// addAuthHeaders sets HTTP basic authentication when credentials are configured.
func (c *Client) addAuthHeaders(req *http.Request) {
	if c.username == "" {
		return
	}
	req.SetBasicAuth(c.username, c.password)
}
