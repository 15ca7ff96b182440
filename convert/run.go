// Package convert drives conversion of HTML sources (single files,
// directories and zip archives) into docx documents.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"h2d/archive"
	"h2d/common"
	"h2d/config"
	"h2d/convert/docx"
	"h2d/convert/docx/opc"
	"h2d/markup"
	"h2d/media"
	"h2d/misc"
	"h2d/state"
)

// job carries what is shared by every document of a single run.
type job struct {
	dst    string
	header *markup.Node
	footer *markup.Node
	log    *zap.Logger
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	env.HeaderFile, env.FooterFile = cmd.String("header"), cmd.String("footer")

	if name := cmd.String("svg"); len(name) > 0 {
		mode, err := common.ParseSVGMode(name)
		if err != nil {
			log.Warn("Unknown SVG mode requested, using configured one", zap.Stringer("mode", env.Cfg.Document.Images.SVG), zap.Error(err))
		} else {
			env.Cfg.Document.Images.SVG = mode
		}
	}

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	j := &job{dst: dst, log: log}
	if j.header, err = loadFragment(env.HeaderFile, log); err != nil {
		return fmt.Errorf("unable to load page header: %w", err)
	}
	if j.footer, err = loadFragment(env.FooterFile, log); err != nil {
		return fmt.Errorf("unable to load page footer: %w", err)
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, j)
}

// loadFragment reads HTML snippet used as page header or footer.
func loadFragment(name string, log *zap.Logger) (*markup.Node, error) {
	if name == "" {
		return nil, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return markup.ParseFragment(f, log)
}

// process determines the input type (directory, archive, single file or path
// inside archive) and processes it accordingly.
func process(ctx context.Context, src string, j *job) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, j); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", j); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		isHTML, err := isHTMLFile(head)
		if err != nil {
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if isHTML && len(tail) == 0 {
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to process file: %w", err)
			}
			defer file.Close()

			images := source{fs: os.DirFS(filepath.Dir(head)), dir: ""}
			if err := processDocument(ctx, file, filepath.Base(head), images, j); err != nil {
				j.log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as HTML document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding HTML documents and archives and
// processes them.
func processDir(ctx context.Context, dir string, j *job) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			j.log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	root := os.DirFS(dir)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			j.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			j.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), j); err != nil {
				j.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		isHTML, err := isHTMLFile(path)
		if err != nil {
			j.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !isHTML {
			j.log.Debug("Skipping file, not recognized as HTML or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			j.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		images := source{fs: root, dir: filepath.ToSlash(filepath.Dir(rel))}
		if err := processDocument(ctx, file, rel, images, j); err != nil {
			j.log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds HTML documents under
// "pathIn" and processes them. Images referenced by relative paths are taken
// from the same archive.
func processArchive(ctx context.Context, arcPath, pathIn, pathOut string, j *job) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			j.log.Debug("Nothing to process", zap.String("archive", arcPath))
		}
	}()

	zr, err := zip.OpenReader(arcPath)
	if err != nil {
		return err
	}
	defer zr.Close()

	cp := state.EnvFromContext(ctx).CodePage

	err = archive.Walk(arcPath, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		isHTML, err := isHTMLInArchive(f)
		if err != nil {
			j.log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !isHTML {
			j.log.Debug("Skipping file, not recognized as HTML", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			j.log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		nameInArchive := f.Name
		if cp != nil && f.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(nameInArchive); err == nil {
				nameInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				j.log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", nameInArchive), zap.Error(err))
			}
		}

		images := source{fs: zr, dir: path.Dir(f.Name)}
		if err := processDocument(ctx, r, filepath.Join(pathOut, filepath.FromSlash(nameInArchive)), images, j); err != nil {
			j.log.Error("Unable to process file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// source is where images with relative references come from: file system
// root and slash separated directory of the document inside it.
type source struct {
	fs  fs.FS
	dir string
}

// base returns "file" URL of the document directory.
func (s source) base() string {
	dir := strings.Trim(s.dir, "/")
	if dir == "" || dir == "." {
		return "file:///"
	}
	return (&url.URL{Scheme: "file", Path: "/" + dir + "/"}).String()
}

// imageBase selects base for relative image references. Document <base>
// element wins, it is itself resolved against configured base or document
// location.
func imageBase(declared, configured, local string) string {
	fallback := configured
	if fallback == "" {
		fallback = local
	}
	if declared == "" {
		return fallback
	}
	d, err := url.Parse(declared)
	if err != nil {
		return fallback
	}
	if d.IsAbs() {
		return d.String()
	}
	b, err := url.Parse(fallback)
	if err != nil || fallback == "" {
		return fallback
	}
	return b.ResolveReference(d).String()
}

func newFetcher(cfg *config.ImagesConfig, fsys fs.FS) media.Fetcher {
	hf := media.NewHTTPFetcher(cfg)
	f := media.SchemeFetcher{"http": hf, "https": hf}
	if fsys != nil {
		f["file"] = &media.FSFetcher{FS: fsys, MaxBytes: cfg.MaxImageBytes}
	}
	return f
}

// processDocument converts single HTML document. "src" is part of the source
// path (always including file name) relative to the original path: just the
// base name for a single file or relative path inside directory or archive.
// Destination file is placed under job destination directory.
func processDocument(ctx context.Context, r io.Reader, src string, images source, j *job) (rerr error) {
	env := state.EnvFromContext(ctx)
	log := j.log.With(zap.String("source", src))

	var (
		outputName string
		stats      media.Stats
	)

	log.Info("Conversion starting")
	defer func(start time.Time) {
		// NOTE: image decoders and rasterizer may panic on broken input, when
		// many documents are processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName),
				zap.Int("images", stats.Misses), zap.Int("image failures", stats.Failures))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read source (%s): %w", src, err)
	}
	reportName := filepath.ToSlash(src)
	env.Rpt.StoreData("source/"+reportName, data)

	doc, err := markup.Parse(bytes.NewReader(data), "", log)
	if err != nil {
		return fmt.Errorf("unable to parse HTML source (%s): %w", src, err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("tree/"+reportName+".txt", []byte(doc.Body.Dump()))
	}

	outputName = buildOutputPath(doc, src, j.dst, env)
	if err := prepareDestination(outputName, env.Overwrite, log); err != nil {
		return err
	}

	opts := docx.OptionsFromConfig(&env.Cfg.Document)
	opts.Images.BaseURL = imageBase(doc.Base, env.Cfg.Document.Images.BaseURL, images.base())
	opts.Fetcher = newFetcher(&env.Cfg.Document.Images, images.fs)
	pkg := opc.New()
	opts.Package = pkg

	res, err := docx.Render(ctx, docx.Document{Body: doc.Body, Header: j.header, Footer: j.footer}, opts, log)
	if err != nil {
		return fmt.Errorf("unable to render document: %w", err)
	}
	stats = res.Stats

	if err := res.Store(pkg); err != nil {
		return err
	}
	creator := misc.GetAppName() + " " + misc.GetVersion()
	if err := pkg.AddCoreProperties(opc.CoreProperties(doc.Title, creator, doc.Lang, uuid.New(), time.Now())); err != nil {
		return fmt.Errorf("unable to store document properties: %w", err)
	}
	if env.Rpt != nil {
		if xml, err := res.Document().WriteToBytes(); err == nil {
			env.Rpt.StoreData("document/"+reportName+".xml", xml)
		}
	}

	if err := pkg.Save(outputName); err != nil {
		return fmt.Errorf("unable to save document: %w", err)
	}
	if env.Rpt != nil {
		if rel, err := filepath.Rel(j.dst, outputName); err == nil {
			env.Rpt.Store("result/"+filepath.ToSlash(rel), outputName)
		}
	}
	return nil
}

// prepareDestination makes sure output file could be created.
func prepareDestination(name string, overwrite bool, log *zap.Logger) error {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		return os.Remove(name)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}
