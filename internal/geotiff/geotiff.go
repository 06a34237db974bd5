// Package geotiff decodes single band GeoTIFF rasters without external
// bindings. Classic little and big endian TIFFs with strip or tile layout,
// uncompressed or deflate compressed, carrying 16/32/64 bit integer or
// floating point samples are supported. That covers the DEM products this
// tool is pointed at; anything more exotic should be converted upstream.
package geotiff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagSampleFormat    = 339
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
	tagGDALNodata      = 42113
)

const (
	compressionNone       = 1
	compressionDeflate    = 8
	compressionDeflateOld = 32946
	sampleFormatUnsigned  = 1
	sampleFormatSigned    = 2
	sampleFormatFloat     = 3
)

var ErrNoGeoreference = errors.New("geotiff: no georeference tags")

type ifdEntry struct {
	fieldType uint16
	count     uint32
	raw       []byte
}

// Dataset is an opened single band GeoTIFF. The file is read fully into
// memory on Open, block decompression is done lazily and cached.
type Dataset struct {
	data []byte
	bo   binary.ByteOrder
	tags map[uint16]ifdEntry

	width  int
	height int

	bitsPerSample int
	sampleFormat  int
	compression   int

	tiled        bool
	blockWidth   int
	blockHeight  int
	blockOffsets []uint64
	blockCounts  []uint64

	blockCache map[int][]byte

	pixelScale []float64
	tiepoint   []float64
	nodata     *float64
}

// Open reads and parses the GeoTIFF at the given path.
func Open(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses an in-memory GeoTIFF.
func Parse(data []byte) (*Dataset, error) {
	if len(data) < 8 {
		return nil, errors.New("geotiff: file too short")
	}

	var bo binary.ByteOrder
	switch string(data[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, fmt.Errorf("geotiff: bad byte order mark %q", data[0:2])
	}
	if bo.Uint16(data[2:4]) != 42 {
		return nil, errors.New("geotiff: not a classic TIFF")
	}

	d := &Dataset{
		data:       data,
		bo:         bo,
		tags:       map[uint16]ifdEntry{},
		blockCache: map[int][]byte{},
	}
	if err := d.parseIFD(bo.Uint32(data[4:8])); err != nil {
		return nil, err
	}
	if err := d.parseLayout(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dataset) parseIFD(offset uint32) error {
	if int(offset)+2 > len(d.data) {
		return errors.New("geotiff: IFD offset out of range")
	}
	n := int(d.bo.Uint16(d.data[offset : offset+2]))
	pos := int(offset) + 2
	if pos+n*12 > len(d.data) {
		return errors.New("geotiff: truncated IFD")
	}

	for i := 0; i < n; i++ {
		entry := d.data[pos+i*12 : pos+i*12+12]
		tag := d.bo.Uint16(entry[0:2])
		fieldType := d.bo.Uint16(entry[2:4])
		count := d.bo.Uint32(entry[4:8])

		size := typeSize(fieldType) * int(count)
		var raw []byte
		if size <= 4 {
			raw = entry[8 : 8+max(size, 0)]
		} else {
			valueOffset := d.bo.Uint32(entry[8:12])
			if int(valueOffset)+size > len(d.data) {
				return fmt.Errorf("geotiff: tag %d value out of range", tag)
			}
			raw = d.data[valueOffset : int(valueOffset)+size]
		}
		d.tags[tag] = ifdEntry{fieldType: fieldType, count: count, raw: raw}
	}
	return nil
}

func (d *Dataset) parseLayout() error {
	width, ok := d.uintTag(tagImageWidth)
	if !ok {
		return errors.New("geotiff: missing image width")
	}
	height, ok := d.uintTag(tagImageLength)
	if !ok {
		return errors.New("geotiff: missing image length")
	}
	d.width, d.height = int(width), int(height)

	if samples, ok := d.uintTag(tagSamplesPerPixel); ok && samples != 1 {
		return fmt.Errorf("geotiff: %d samples per pixel, only single band rasters are supported", samples)
	}

	bits, ok := d.uintTag(tagBitsPerSample)
	if !ok {
		bits = 1
	}
	d.bitsPerSample = int(bits)
	if bits != 16 && bits != 32 && bits != 64 {
		return fmt.Errorf("geotiff: unsupported sample width %d bits", bits)
	}

	d.sampleFormat = sampleFormatUnsigned
	if format, ok := d.uintTag(tagSampleFormat); ok {
		d.sampleFormat = int(format)
	}

	d.compression = compressionNone
	if compression, ok := d.uintTag(tagCompression); ok {
		d.compression = int(compression)
	}
	switch d.compression {
	case compressionNone, compressionDeflate, compressionDeflateOld:
	default:
		return fmt.Errorf("geotiff: unsupported compression %d", d.compression)
	}

	if offsets, ok := d.uintSliceTag(tagTileOffsets); ok {
		tileWidth, _ := d.uintTag(tagTileWidth)
		tileHeight, _ := d.uintTag(tagTileLength)
		if tileWidth == 0 || tileHeight == 0 {
			return errors.New("geotiff: tiled layout without tile shape")
		}
		counts, ok := d.uintSliceTag(tagTileByteCounts)
		if !ok {
			return errors.New("geotiff: tiled layout without byte counts")
		}
		d.tiled = true
		d.blockWidth = int(tileWidth)
		d.blockHeight = int(tileHeight)
		d.blockOffsets = offsets
		d.blockCounts = counts
	} else if offsets, ok := d.uintSliceTag(tagStripOffsets); ok {
		rowsPerStrip, ok := d.uintTag(tagRowsPerStrip)
		if !ok || rowsPerStrip == 0 {
			rowsPerStrip = uint64(d.height)
		}
		counts, ok := d.uintSliceTag(tagStripByteCounts)
		if !ok {
			return errors.New("geotiff: strip layout without byte counts")
		}
		d.blockWidth = d.width
		d.blockHeight = int(rowsPerStrip)
		d.blockOffsets = offsets
		d.blockCounts = counts
	} else {
		return errors.New("geotiff: no strip or tile offsets")
	}

	d.pixelScale, _ = d.floatSliceTag(tagModelPixelScale)
	d.tiepoint, _ = d.floatSliceTag(tagModelTiepoint)

	if raw, ok := d.asciiTag(tagGDALNodata); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			d.nodata = &v
		}
	}
	return nil
}

func (d *Dataset) Width() int {
	return d.width
}

func (d *Dataset) Height() int {
	return d.height
}

// NodataValue returns the band nodata value declared via the GDAL_NODATA tag.
func (d *Dataset) NodataValue() (float64, bool) {
	if d.nodata == nil {
		return 0, false
	}
	return *d.nodata, true
}

// GeoTransform returns the gdal style affine [x0 dx sx y0 sy dy] derived from
// the ModelPixelScale and ModelTiepoint tags.
func (d *Dataset) GeoTransform() ([6]float64, error) {
	if len(d.pixelScale) < 2 || len(d.tiepoint) < 6 {
		return [6]float64{}, ErrNoGeoreference
	}
	sx, sy := d.pixelScale[0], d.pixelScale[1]
	i, j := d.tiepoint[0], d.tiepoint[1]
	x, y := d.tiepoint[3], d.tiepoint[4]

	return [6]float64{
		x - i*sx, sx, 0,
		y + j*sy, 0, -sy,
	}, nil
}

// ReadBand decodes the requested pixel window into a dense matrix, row 0
// being the top (north) raster row.
func (d *Dataset) ReadBand(xOff, yOff, width, height int) (*mat.Dense, error) {
	if xOff < 0 || yOff < 0 || width < 1 || height < 1 || xOff+width > d.width || yOff+height > d.height {
		return nil, fmt.Errorf("geotiff: window %d,%d %dx%d outside raster %dx%d", xOff, yOff, width, height, d.width, d.height)
	}

	out := mat.NewDense(height, width, nil)
	blocksAcross := (d.width + d.blockWidth - 1) / d.blockWidth
	bytesPerSample := d.bitsPerSample / 8

	for row := yOff; row < yOff+height; row++ {
		blockRow := row / d.blockHeight
		rowInBlock := row % d.blockHeight
		for col := xOff; col < xOff+width; col++ {
			blockIndex := blockRow*blocksAcross + col/d.blockWidth
			if !d.tiled {
				blockIndex = blockRow
			}
			block, err := d.block(blockIndex)
			if err != nil {
				return nil, err
			}

			colInBlock := col % d.blockWidth
			if !d.tiled {
				colInBlock = col
			}
			at := (rowInBlock*d.blockWidth + colInBlock) * bytesPerSample
			if at+bytesPerSample > len(block) {
				return nil, fmt.Errorf("geotiff: block %d truncated", blockIndex)
			}
			out.Set(row-yOff, col-xOff, d.sample(block[at:at+bytesPerSample]))
		}
	}
	return out, nil
}

func (d *Dataset) block(index int) ([]byte, error) {
	if cached, ok := d.blockCache[index]; ok {
		return cached, nil
	}
	if index < 0 || index >= len(d.blockOffsets) || index >= len(d.blockCounts) {
		return nil, fmt.Errorf("geotiff: block index %d out of range", index)
	}

	start := int(d.blockOffsets[index])
	count := int(d.blockCounts[index])
	if start+count > len(d.data) {
		return nil, fmt.Errorf("geotiff: block %d data out of range", index)
	}
	raw := d.data[start : start+count]

	if d.compression != compressionNone {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("geotiff: block %d: %w", index, err)
		}
		defer zr.Close()
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("geotiff: block %d: %w", index, err)
		}
	}

	d.blockCache[index] = raw
	return raw, nil
}

func (d *Dataset) sample(raw []byte) float64 {
	switch d.bitsPerSample {
	case 16:
		v := d.bo.Uint16(raw)
		if d.sampleFormat == sampleFormatSigned {
			return float64(int16(v))
		}
		return float64(v)
	case 32:
		v := d.bo.Uint32(raw)
		switch d.sampleFormat {
		case sampleFormatFloat:
			return float64(math.Float32frombits(v))
		case sampleFormatSigned:
			return float64(int32(v))
		default:
			return float64(v)
		}
	default:
		v := d.bo.Uint64(raw)
		if d.sampleFormat == sampleFormatFloat {
			return math.Float64frombits(v)
		}
		if d.sampleFormat == sampleFormatSigned {
			return float64(int64(v))
		}
		return float64(v)
	}
}

func (d *Dataset) uintTag(tag uint16) (uint64, bool) {
	values, ok := d.uintSliceTag(tag)
	if !ok || len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

func (d *Dataset) uintSliceTag(tag uint16) ([]uint64, bool) {
	entry, ok := d.tags[tag]
	if !ok {
		return nil, false
	}
	size := typeSize(entry.fieldType)
	if size == 0 || len(entry.raw) < size*int(entry.count) {
		return nil, false
	}

	out := make([]uint64, entry.count)
	for i := range out {
		raw := entry.raw[i*size:]
		switch entry.fieldType {
		case 1: // BYTE
			out[i] = uint64(raw[0])
		case 3: // SHORT
			out[i] = uint64(d.bo.Uint16(raw))
		case 4: // LONG
			out[i] = uint64(d.bo.Uint32(raw))
		default:
			return nil, false
		}
	}
	return out, true
}

func (d *Dataset) floatSliceTag(tag uint16) ([]float64, bool) {
	entry, ok := d.tags[tag]
	if !ok || entry.fieldType != 12 || len(entry.raw) < 8*int(entry.count) {
		return nil, false
	}
	out := make([]float64, entry.count)
	for i := range out {
		out[i] = math.Float64frombits(d.bo.Uint64(entry.raw[i*8:]))
	}
	return out, true
}

func (d *Dataset) asciiTag(tag uint16) (string, bool) {
	entry, ok := d.tags[tag]
	if !ok || entry.fieldType != 2 {
		return "", false
	}
	return strings.TrimRight(string(entry.raw), "\x00"), true
}

func typeSize(fieldType uint16) int {
	switch fieldType {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	default:
		return 0
	}
}
