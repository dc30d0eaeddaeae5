// Package workplan partitions an inventory tree into the directories to
// create and the files to copy, encode as video, or convert as subtitles.
package workplan

import (
	"mediamirror/internal/inventory"
)

// VideoExtensions lists extensions treated as video containers.
var VideoExtensions = setOf(
	"3g2", "3gp",
	"amv", "asf", "avi",
	"drc",
	"f4a", "f4b", "f4p", "f4v", "flv",
	"gif", "gifv",
	"m2v", "m4p", "m4v", "mkv", "mng", "mov", "mp2", "mp4", "mpe", "mpeg", "mpg", "mpv", "mxf",
	"nsv",
	"ogg", "ogm", "ogv",
	"qt",
	"rm", "rmvb", "roq",
	"svi",
	"ts",
	"vob",
	"webm", "wmv",
	"yuv",
)

// SubtitleExtensions lists extensions treated as subtitle files.
var SubtitleExtensions = setOf("aqt", "ass", "jss", "pjs", "rt", "sbv", "smi", "srt", "ssa", "stl", "sub", "vtt")

// Targets names the output extensions. Files already in the target format
// are copied rather than re-encoded.
type Targets struct {
	VideoExtension    string
	SubtitleExtension string
}

// DefaultTargets is WebM video with WebVTT subtitles.
var DefaultTargets = Targets{VideoExtension: "webm", SubtitleExtension: "vtt"}

// Plan is the classified work for one run. Every file of the tree appears in
// exactly one of the three file lists.
type Plan struct {
	DirectoriesToCreate []string
	FilesToCopy         []*inventory.File
	SubtitlesToConvert  []*inventory.File
	VideosToEncode      []*inventory.File
}

// FileCount returns the number of files across all three lists.
func (p Plan) FileCount() int {
	return len(p.FilesToCopy) + len(p.SubtitlesToConvert) + len(p.VideosToEncode)
}

// Classify builds the plan for tree. It does not touch the filesystem.
func Classify(tree *inventory.Dir, targets Targets) Plan {
	var plan Plan
	if tree == nil {
		return plan
	}
	classifyDir(tree, targets, &plan)
	return plan
}

func classifyDir(dir *inventory.Dir, targets Targets, plan *Plan) {
	plan.DirectoriesToCreate = append(plan.DirectoriesToCreate, dir.RelPath)
	for _, child := range dir.Children {
		switch entry := child.(type) {
		case *inventory.Dir:
			classifyDir(entry, targets, plan)
		case *inventory.File:
			switch Classification(entry.Ext, targets) {
			case ActionEncodeVideo:
				plan.VideosToEncode = append(plan.VideosToEncode, entry)
			case ActionConvertSubtitle:
				plan.SubtitlesToConvert = append(plan.SubtitlesToConvert, entry)
			default:
				plan.FilesToCopy = append(plan.FilesToCopy, entry)
			}
		}
	}
}

// Action is the work class assigned to a single file.
type Action int

const (
	ActionCopy Action = iota
	ActionEncodeVideo
	ActionConvertSubtitle
)

func (a Action) String() string {
	switch a {
	case ActionEncodeVideo:
		return "encode"
	case ActionConvertSubtitle:
		return "subtitle"
	default:
		return "copy"
	}
}

// Classification returns the action for a file extension. The video check
// runs first.
func Classification(ext string, targets Targets) Action {
	if VideoExtensions[ext] && ext != targets.VideoExtension {
		return ActionEncodeVideo
	}
	if SubtitleExtensions[ext] && ext != targets.SubtitleExtension {
		return ActionConvertSubtitle
	}
	return ActionCopy
}

func setOf(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
