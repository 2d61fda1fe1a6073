package fetcher

import (
	"bytes"
)

// Challenge widgets recognised on fetched pages.
const (
	ChallengeReCaptcha = "recaptcha"
	ChallengeHCaptcha  = "hcaptcha"
	ChallengeTurnstile = "turnstile"
)

var challengeMarkers = []struct {
	name    string
	markers [][]byte
}{
	{ChallengeReCaptcha, [][]byte{[]byte("g-recaptcha"), []byte("recaptcha/api.js")}},
	{ChallengeHCaptcha, [][]byte{[]byte("h-captcha"), []byte("hcaptcha.com/1/api.js")}},
	{ChallengeTurnstile, [][]byte{[]byte("cf-turnstile"), []byte("challenges.cloudflare.com/turnstile")}},
}

// DetectChallenge reports which bot-challenge widget a page embeds. A
// widget only counts when the page carries a data-sitekey.
func DetectChallenge(html []byte) string {
	if !bytes.Contains(html, []byte(`data-sitekey="`)) {
		return ""
	}
	lower := bytes.ToLower(html)
	for _, c := range challengeMarkers {
		for _, m := range c.markers {
			if bytes.Contains(lower, m) {
				return c.name
			}
		}
	}
	return ""
}
