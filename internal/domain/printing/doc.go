// Package printing contains the export bounded context: paper geometry,
// export formats and the export job record kept for every export call.
package printing
