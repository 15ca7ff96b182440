package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"h2d/config"
	"h2d/markup"
	"h2d/state"
)

const outputExt = ".docx"

// buildOutputPath returns output file path for converted document. Default
// name is source base name with docx extension placed under destination
// directory, which mirrors source directory structure unless NoDirs is set.
// User-defined template may produce both subdirectories and a file name.
// Every path segment is cleaned and, if requested, transliterated.
func buildOutputPath(doc *markup.Document, src, dst string, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(src, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(doc, src, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}
	return assemblePathWithSubdirs(outDir, expandedName, env)
}

func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env) + outputExt
}

func expandOutputNameTemplate(doc *markup.Document, src string, env *state.LocalEnv) string {
	values := buildValues(doc, config.OutputNameTemplateFieldName, src, env.RunID.String(), time.Now())
	expandedName, err := expandTemplate(values, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(strings.TrimSpace(expandedName))
}

func assemblePathWithSubdirs(outDir, expandedName string, env *state.LocalEnv) string {
	segments := splitPath(expandedName)
	if len(segments) == 0 {
		return outDir
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for _, segment := range segments[:len(segments)-1] {
		parts = append(parts, cleanPathSegment(segment, env))
	}
	name := segments[len(segments)-1]
	// template may or may not carry extension
	if strings.EqualFold(filepath.Ext(name), outputExt) {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	parts = append(parts, cleanPathSegment(name, env)+outputExt)
	return filepath.Join(parts...)
}

// splitPath breaks path into its elements dropping empty, "." and ".."
// ones so template output cannot leave destination directory.
func splitPath(path string) []string {
	segments := make([]string, 0, 8)
	for _, s := range strings.Split(path, string(os.PathSeparator)) {
		s = strings.TrimSpace(s)
		if s == "" || s == "." || s == ".." {
			continue
		}
		segments = append(segments, s)
	}
	return slices.Clip(segments)
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
