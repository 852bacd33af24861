// Package source switches skemajson to the go-json driver when imported for
// its side effects:
//
//	import _ "github.com/reoring/skemajson/source"
package source

import (
	skemajson "github.com/reoring/skemajson"
)

// init in a separate package to avoid import cycle in root. This sets go-json as default driver.
func init() { skemajson.UseGoJSONDriver() }
