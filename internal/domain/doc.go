// Package domain models Météo-France hourly station observations.
//
// # Data Source
//
// Hourly climatological archives ("HOR" files) are published per department
// and per decade on data.gouv.fr. Each archive is a gzip-compressed,
// semicolon-delimited CSV with one row per station and hour. The download
// step stores them as:
//
//	HOR_departement_<dept>_periode_<period>.csv.gz
//	e.g. HOR_departement_75_periode_1900-1909.csv.gz
//
// The department code is not a column of the archive; it is recovered from
// the third underscore-separated token of the filename. See
// [DepartmentFromFilename].
//
// # Source Columns
//
// Only a fixed subset of the ~200 archive columns is kept:
//
//	NUM_POSTE   station id (8 digits, leading zeros significant)
//	NOM_USUEL   station name
//	LAT, LON    WGS-84 coordinates in decimal degrees
//	ALTI        altitude in metres
//	AAAAMMJJHH  observation time, compact "YYYYMMDDHH" (UTC)
//	FF          mean wind speed (m/s)
//	DD          wind direction (degrees)
//	T           temperature, tenths of °C
//	TD          dew point, tenths of °C
//	U           relative humidity (%)
//	PMER        sea-level pressure (hPa)
//	PSTAT       station pressure (hPa)
//
// Empty cells mean "not measured" and are carried as nil values. No range
// checks are applied: humidity and pressure may be out of range.
//
// # Cleaning Rules
//
//	AAAAMMJJHH  parsed with layout "2006010215"; rows that fail are dropped
//	T, TD       divided by 10 to get °C
//	hour/year/month derived from the parsed time
//
// Duplicate rows from overlapping archive periods are kept as-is.
package domain
