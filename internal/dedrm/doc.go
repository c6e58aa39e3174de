// Package dedrm strips content protection from downloaded payloads by
// shelling out to an external conversion tool.
package dedrm
