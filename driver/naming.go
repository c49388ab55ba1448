package driver

import (
	"path"
	"path/filepath"
	"strings"
)

// GenSegment is inserted after the first segment of every generated
// class name.
const GenSegment = "gen"

// MixinPrefix is prepended to the last segment of generated mixin names.
const MixinPrefix = "M"

// ClassName derives the generated class name from a source path
// relative to the source directory. Separators become dots, GenSegment
// is inserted after the first segment and mixins get MixinPrefix on
// the last segment:
//
//	mobileHello/page/Login.xml  -> mobileHello.gen.page.Login
//	mobileHello/Shared.xml      -> mobileHello.gen.MShared (mixin)
func ClassName(rel string, mixin bool) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	segs := strings.Split(rel, "/")

	prefix := ""
	if mixin {
		prefix = MixinPrefix
	}
	middle := ""
	if len(segs) > 2 {
		middle = strings.Join(segs[1:len(segs)-1], ".")
	}
	// A single segment is both namespace and name: Login.xml -> Login.gen.Login.
	name := segs[0] + "." + GenSegment + "." + middle + "." + prefix + segs[len(segs)-1]
	for strings.Contains(name, "..") {
		name = strings.ReplaceAll(name, "..", ".")
	}
	return name
}

// OutputPath returns the path of the file a class is written to.
func OutputPath(sourceDir, className string) string {
	return filepath.Join(sourceDir, filepath.FromSlash(strings.ReplaceAll(className, ".", "/"))+".js")
}
