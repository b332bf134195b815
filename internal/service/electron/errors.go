package electron

import "errors"

var (
	// ErrVersionUnresolvable is a configuration error: no runtime version could be determined.
	ErrVersionUnresolvable = errors.New("cannot compute electron version")
	// ErrStageBusy is returned when another live preparation owns the stage directory.
	ErrStageBusy = errors.New("stage directory is in use")
	// ErrArchiveNotCached is returned by ArchiveUnpacker when the release zip is absent.
	ErrArchiveNotCached = errors.New("electron archive is not cached")
	// ErrChecksumMismatch is returned when a cached archive does not match SHASUMS256.txt.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrNoMacBundler is returned for macOS targets without a MacBundler.
	ErrNoMacBundler = errors.New("mac bundler is not configured")
	// ErrNoCodecInjector is returned when alternate ffmpeg is requested without a CodecInjector.
	ErrNoCodecInjector = errors.New("codec injector is not configured")

	errWorkerFailed    = errors.New("unpack worker failed")
	errNoUnpacker      = errors.New("unpacker is not configured")
	errIllegalEntry    = errors.New("illegal archive entry")
	errConfigIsNotSet  = errors.New("configuration is not set")
	errNotADirectory   = errors.New("not a directory")
	errNoChecksumEntry = errors.New("no checksum entry")
)
