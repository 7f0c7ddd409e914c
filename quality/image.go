package quality

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
)

// processImages normalizes up to MaxImages inputs into dir, naming them
// processed_01.jpg onward in input order. A failing image is skipped and
// recorded; the survivors keep their ordinals contiguous.
func (a *Agent) processImages(ctx context.Context, paths []string, dir string) ([]string, []string) {
	paths = capped(paths, a.cfg.MaxImages)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, []string{fmt.Sprintf("images dir: %v", err)}
	}

	var processed []string
	var violations []string
	for _, src := range paths {
		if err := ctx.Err(); err != nil {
			violations = append(violations, fmt.Sprintf("image %s: %v", filepath.Base(src), err))
			continue
		}
		name := fmt.Sprintf("processed_%02d.jpg", len(processed)+1)
		dst := filepath.Join(dir, name)
		if err := a.normalizeImage(src, dst); err != nil {
			a.log.Warn().Str("image", filepath.Base(src)).Err(err).Msg("image normalization failed")
			violations = append(violations, fmt.Sprintf("image %s: %v", filepath.Base(src), err))
			continue
		}
		processed = append(processed, name)
	}
	return processed, violations
}

// normalizeImage decodes src, crops it centered to the target aspect ratio
// and scales to TargetWidth x TargetHeight, writing JPEG output.
func (a *Agent) normalizeImage(src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	tw, th := a.cfg.TargetWidth, a.cfg.TargetHeight
	crop := centerCrop(img.Bounds(), tw, th)

	out := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, crop, xdraw.Src, nil)

	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(w, out, &jpeg.Options{Quality: 92}); err != nil {
		w.Close()
		return fmt.Errorf("encode: %w", err)
	}
	return w.Close()
}

// centerCrop returns the largest sub-rectangle of b with the tw:th aspect
// ratio, centered in b.
func centerCrop(b image.Rectangle, tw, th int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw*th > sh*tw {
		cw := sh * tw / th
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * th / tw
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
