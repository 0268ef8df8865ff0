package version

import "fmt"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.MajorNumber, v.MinorNumber, v.PatchNumber)
}

var AppVersion = Version{MajorNumber: 0, MinorNumber: 3, PatchNumber: 0}

// Commit is set at link time with -ldflags "-X .../version.Commit=...".
var Commit = "dev"
