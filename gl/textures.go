package gl

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/handle"
)

// SourceFormat is the pixel format a guest TexImage2D call supplies, before
// the conversion policy below normalizes it to a backend.PixelFormat
// (spec §4.7's "format conversion policy").
type SourceFormat int

const (
	SourceRGBA SourceFormat = iota
	SourceRGB
	SourceLuminance
	SourceLuminanceAlpha
	SourceAlpha
)

// CreateTexture allocates a new, empty Texture entity.
func (c *Context) CreateTexture() (handle.Handle, error) {
	h, err := c.textures.Alloc(Texture{})
	if err != nil {
		return handle.Invalid, ErrAtCapacity
	}
	return h, nil
}

// ActiveTexture selects which texture unit subsequent BindTexture calls
// target (spec §4.7).
func (c *Context) ActiveTexture(unit int) error {
	if unit < 0 || unit >= MaxTextureUnits {
		return fmt.Errorf("%w: texture unit %d out of range", ErrInvalidTexture, unit)
	}
	c.activeTextureUnit = unit
	return nil
}

// BindTexture binds h as 2D or cube (per cube) to the active texture unit.
// A texture's 2D/cube-ness is locked on first bind, matching the buffer
// usage-lock invariant (spec §4.3, mirrored for textures in §4.7).
func (c *Context) BindTexture(h handle.Handle, cube bool) error {
	if h.IsZero() {
		c.boundTextures[c.activeTextureUnit] = handle.Invalid
		return nil
	}
	tex := c.textures.Get(h)
	if tex == nil {
		return ErrInvalidHandle
	}
	if tex.targetLocked && tex.cube != cube {
		return ErrWrongTarget
	}
	tex.cube = cube
	tex.targetLocked = true
	c.boundTextures[c.activeTextureUnit] = h
	return nil
}

func (c *Context) boundTexture() (*Texture, handle.Handle, error) {
	h := c.boundTextures[c.activeTextureUnit]
	if h.IsZero() {
		return nil, handle.Invalid, ErrInvalidTexture
	}
	tex := c.textures.Get(h)
	if tex == nil {
		return nil, handle.Invalid, ErrInvalidHandle
	}
	return tex, h, nil
}

// TexParameteri sets a sampler parameter on the texture bound to the
// active unit, marking it dirty for re-coercion at flush (spec §4.7).
func (c *Context) TexParameteri(min, mag backend.FilterMode, wrapS, wrapT backend.WrapMode) error {
	tex, _, err := c.boundTexture()
	if err != nil {
		return err
	}
	tex.sampler = backend.SamplerDescriptor{MinFilter: min, MagFilter: mag, WrapS: wrapS, WrapT: wrapT}
	tex.dirtyParams = true
	return nil
}

// TexImage2D records the pixel data supplied for the texture bound to the
// active unit. It only copies the raw bytes into the texture's pending
// fields; the format conversion policy (spec §4.7 step 1: RGB widens to
// RGBA with alpha=255, LUMINANCE/ALPHA narrow to R8, LUMINANCE_ALPHA widens
// to RG8) runs later, per texture, when flushTextures fans dirty textures
// out across the worker pool — the same deferred-to-flush shape the spec
// uses for draw commands (§4.8), applied here to the one piece of C7 that
// is genuinely CPU-bound and independent across textures.
func (c *Context) TexImage2D(width, height int, format SourceFormat, pixels []byte) error {
	tex, _, err := c.boundTexture()
	if err != nil {
		return err
	}

	raw := make([]byte, len(pixels))
	copy(raw, pixels)

	tex.pendingWidth, tex.pendingHeight = width, height
	tex.pendingFormat = format
	tex.pendingPixels = raw
	tex.dirtyPixels = true
	return nil
}

// convertPixels applies the spec's format-widening policy and returns the
// destination format plus the converted byte buffer.
func convertPixels(width, height int, format SourceFormat, src []byte) (backend.PixelFormat, []byte, error) {
	n := width * height
	switch format {
	case SourceRGBA:
		if len(src) < n*4 {
			return 0, nil, fmt.Errorf("%w: short RGBA pixel buffer", ErrInvalidTexture)
		}
		return backend.PixelFormatRGBA8, src[:n*4], nil

	case SourceRGB:
		if len(src) < n*3 {
			return 0, nil, fmt.Errorf("%w: short RGB pixel buffer", ErrInvalidTexture)
		}
		out := make([]byte, n*4)
		for i := 0; i < n; i++ {
			out[i*4+0] = src[i*3+0]
			out[i*4+1] = src[i*3+1]
			out[i*4+2] = src[i*3+2]
			out[i*4+3] = 255
		}
		return backend.PixelFormatRGBA8, out, nil

	case SourceLuminance, SourceAlpha:
		if len(src) < n {
			return 0, nil, fmt.Errorf("%w: short single-channel pixel buffer", ErrInvalidTexture)
		}
		return backend.PixelFormatR8, src[:n], nil

	case SourceLuminanceAlpha:
		if len(src) < n*2 {
			return 0, nil, fmt.Errorf("%w: short LUMINANCE_ALPHA pixel buffer", ErrInvalidTexture)
		}
		return backend.PixelFormatRG8, src[:n*2], nil

	default:
		return 0, nil, fmt.Errorf("%w: unknown source pixel format", ErrInvalidTexture)
	}
}

// DeleteTexture releases h's staging region and backend resources and
// frees its handle-table slot.
func (c *Context) DeleteTexture(h handle.Handle) error {
	tex := c.textures.Get(h)
	if tex == nil {
		return ErrInvalidHandle
	}
	if tex.hasPixels {
		c.textureStaging.Free(tex.region)
	}
	if tex.hasBackend {
		c.backend.DestroyView(tex.backendView)
		c.backend.DestroySampler(tex.backendSamp)
		c.backend.DestroyImage(tex.backendImage)
	}
	for i := range c.boundTextures {
		if c.boundTextures[i] == h {
			c.boundTextures[i] = handle.Invalid
		}
	}
	c.textures.Free(h)
	return nil
}

// textureConversionWorkers bounds the dynamic worker pool used to prepare
// multiple dirty textures' GPU-side data in parallel at flush time.
const textureConversionWorkers = 4

// flushTextures uploads every dirty texture to the backend. CPU-side work
// across textures (format conversion and the staging-pool copy) is fanned
// out across a bounded worker pool and joined with a WaitGroup
// barrier before any backend call runs, so the single-threaded cooperative
// contract (spec §5) still holds from the caller's point of view: Flush
// itself never returns until every texture is fully resolved, and no two
// goroutines ever touch the same backend resource concurrently.
func (c *Context) flushTextures() error {
	var dirty []handle.Handle
	c.textures.Range(func(h handle.Handle, tex *Texture) {
		if tex.dirtyPixels || tex.dirtyParams {
			dirty = append(dirty, h)
		}
	})
	if len(dirty) == 0 {
		return nil
	}

	pool := worker.NewDynamicWorkerPool(textureConversionWorkers, len(dirty), time.Second)
	var wg sync.WaitGroup
	var stagingMu sync.Mutex
	errs := make([]error, len(dirty))

	for i, h := range dirty {
		wg.Add(1)
		idx := i
		href := h
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				errs[idx] = c.prepareTextureUpload(href, &stagingMu)
				return nil, nil
			},
		})
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for _, h := range dirty {
		if err := c.uploadTexture(h); err != nil {
			return err
		}
	}
	return nil
}

// prepareTextureUpload runs the CPU-side half of one texture's upload: the
// format conversion policy against the pixels TexImage2D recorded, then a
// staging-pool copy of the converted bytes. It reads the texture's own
// pending fields, writes into its own entity fields, and holds stagingMu
// while it touches the shared staging pool, so running many of these
// concurrently across distinct textures is safe even though the backend
// calls that follow, in uploadTexture, are not.
func (c *Context) prepareTextureUpload(h handle.Handle, stagingMu *sync.Mutex) error {
	tex := c.textures.Get(h)
	if tex == nil {
		return ErrInvalidHandle
	}
	if !tex.dirtyPixels {
		return nil
	}

	dstFormat, converted, err := convertPixels(tex.pendingWidth, tex.pendingHeight, tex.pendingFormat, tex.pendingPixels)
	if err != nil {
		return err
	}

	stagingMu.Lock()
	if tex.hasPixels {
		c.textureStaging.Free(tex.region)
	}
	region, err := c.textureStaging.Alloc(len(converted))
	if err != nil {
		stagingMu.Unlock()
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	}
	copy(c.textureStaging.Slice(region), converted)
	stagingMu.Unlock()

	tex.width, tex.height = tex.pendingWidth, tex.pendingHeight
	tex.format = dstFormat
	tex.region = region
	tex.hasPixels = true
	tex.pendingPixels = nil
	return nil
}

// uploadTexture performs the backend-facing half of one texture's upload.
// Always called from the single-threaded flush path, after flushTextures'
// WaitGroup barrier has closed.
func (c *Context) uploadTexture(h handle.Handle) error {
	tex := c.textures.Get(h)
	if tex == nil {
		return ErrInvalidHandle
	}

	// Images are created with a single mip level, so a mipmap min filter is
	// coerced to its non-mipmap equivalent before the sampler is built.
	sampler := tex.sampler
	if sampler.MinFilter == backend.FilterLinearMipmapLinear {
		sampler.MinFilter = backend.FilterLinear
	}

	if !tex.hasBackend {
		img, err := c.backend.MakeImage(backend.ImageDescriptor{
			Width: tex.width, Height: tex.height, Format: tex.format, Cube: tex.cube,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		view, err := c.backend.MakeView(img)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		samp, err := c.backend.MakeSampler(sampler)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		tex.backendImage, tex.backendView, tex.backendSamp = img, view, samp
		tex.hasBackend = true
	}

	if tex.dirtyPixels {
		if err := c.backend.UpdateImage(tex.backendImage, 0, c.textureStaging.Slice(tex.region)); err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		tex.dirtyPixels = false
	}
	if tex.dirtyParams {
		c.backend.DestroySampler(tex.backendSamp)
		samp, err := c.backend.MakeSampler(sampler)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBackendFailed, err)
		}
		tex.backendSamp = samp
		tex.dirtyParams = false
	}
	return nil
}
