// Package output encodes clustering results as rows of a table.
//
// Two formats are supported. FormatCSV writes one text line per result:
//
//	initialization centroids,distortion,centroids,clusters
//	"[(1, 1), (2, 2)]",11,"[(1, 1), (3, 5)]","[[(1, 1)], [(2, 2), (3, 4), ...]]"
//
// FormatParquet writes the same columns, plus the combination rank and the
// iteration count, as a Parquet file.
//
// Either format may be compressed with zstd, gzip or lz4; CompressionFromName
// picks the codec from a file extension.
package output
