/*
 * Copyright (C) 2026 Simone Pezzano
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package tutor

import (
	"path/filepath"
	"strings"
)

const ExtensionMP3 = ".mp3"
const ExtensionWAV = ".wav"
const ExtensionOGG = ".ogg"
const ExtensionM4A = ".m4a"
const ExtensionWEBM = ".webm"
const ExtensionFLAC = ".flac"

const MediaMP3 = "audio/mpeg"
const MediaWAV = "audio/wav"
const MediaOGG = "audio/ogg"
const MediaM4A = "audio/mp4"
const MediaWEBM = "audio/webm"
const MediaFLAC = "audio/flac"
const MediaOctetStream = "application/octet-stream"

// GetMediaType guesses the media type of an audio file from its name
func GetMediaType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtensionMP3:
		return MediaMP3
	case ExtensionWAV:
		return MediaWAV
	case ExtensionOGG:
		return MediaOGG
	case ExtensionM4A:
		return MediaM4A
	case ExtensionWEBM:
		return MediaWEBM
	case ExtensionFLAC:
		return MediaFLAC
	}
	return MediaOctetStream
}

// GetExtension returns the file extension to use for an audio media type. Unknown types get ".bin".
func GetExtension(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case MediaMP3, "audio/mp3":
		return ExtensionMP3
	case MediaWAV, "audio/x-wav", "audio/wave":
		return ExtensionWAV
	case MediaOGG:
		return ExtensionOGG
	case MediaM4A, "audio/x-m4a":
		return ExtensionM4A
	case MediaWEBM:
		return ExtensionWEBM
	case MediaFLAC:
		return ExtensionFLAC
	}
	return ".bin"
}
