// Package cover picks the illustration shown on an interview card.
package cover

import "math/rand/v2"

var images = []string{
	"/images/companies/adobe.png",
	"/images/companies/cognizant.jpeg",
	"/images/companies/fleetstudio.png",
	"/images/companies/reddit.jpeg",
	"/images/companies/skype.jpeg",
	"/images/companies/zoho.png",
}

// Picker returns a cover image path for a new interview.
type Picker func() string

// Random returns a pseudo-random path from the fixed cover set.
func Random() string {
	return images[rand.IntN(len(images))]
}

// Images returns a copy of the cover set.
func Images() []string {
	return append([]string(nil), images...)
}
