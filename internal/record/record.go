// Package record defines the data model flowing through the pipeline: a
// directory listing, its matching map profile, and the flat output
// projection. All fields are optional; "" is a valid state, not an error.
package record

import "github.com/labatlas/centerscrape/internal/textutil"

// ListingRecord is one directory-site entry, optionally enriched by a
// matched ProfileRecord before projection.
type ListingRecord struct {
	CenterName        string `json:"center_name"`
	CenterType        string `json:"center_type"`
	FullAddress       string `json:"full_address"`
	AverageReportTime string `json:"average_report_time"`
	CollectionCharges string `json:"collection_charges"`
	CollectionRadius  string `json:"collection_radius"`
	WorkingHours      string `json:"working_hours"`
	ImageURLs         string `json:"image_urls"`
	ProfileLink       string `json:"google_business_profile_link"`
	EmbedLink         string `json:"google_maps_embed_link"`
	LocalLandmark     string `json:"local_landmark"`
	ReviewsRatings    string `json:"reviews_ratings"`
	Testimonials      string `json:"testimonials"`
	StaffDoctors      string `json:"staff_doctors"`
	SourceURL         string `json:"source_url"`
}

// ProfileRecord is one map-profile entry. Blocked is mutually exclusive with
// the data fields: when set, the whole record is unusable.
type ProfileRecord struct {
	ProfileLink    string `json:"google_business_profile_link"`
	EmbedLink      string `json:"google_maps_embed_link"`
	ReviewsRatings string `json:"reviews_ratings"`
	WorkingHours   string `json:"working_hours"`
	FullAddress    string `json:"full_address"`
	ImageURLs      string `json:"image_urls"`
	Testimonials   string `json:"testimonials"`
	Blocked        string `json:"_blocked,omitempty"`
}

// FailedRecord is one entity routed to the failure set instead of the
// output set.
type FailedRecord struct {
	CenterName string
	Address    string
	Reason     string
}

// Columns is the fixed output header, in order. The CSV always carries
// exactly these fifteen columns.
var Columns = []string{
	"Center Name",
	"Center Type",
	"Address",
	"Average Report Time",
	"Collection Charges",
	"Collection Radius (Kms)",
	"Opening & Closing Slots",
	"Image URL(s)",
	"Google Business Profile Link",
	"Google Maps Embed",
	"Local Landmark / Directions",
	"Reviews / Ratings",
	"Testimonials",
	"Photo Gallery",
	"Staff / Doctors List",
}

// Row projects the listing onto Columns. Photo Gallery mirrors Image URL(s);
// the two have never diverged upstream.
func (r *ListingRecord) Row() []string {
	return []string{
		r.CenterName,
		r.CenterType,
		r.FullAddress,
		r.AverageReportTime,
		r.CollectionCharges,
		r.CollectionRadius,
		r.WorkingHours,
		r.ImageURLs,
		r.ProfileLink,
		r.EmbedLink,
		r.LocalLandmark,
		r.ReviewsRatings,
		r.Testimonials,
		r.ImageURLs,
		r.StaffDoctors,
	}
}

// DedupeKey identifies a listing for bulk-mode deduplication: the pair of
// normalized name and normalized address.
func (r *ListingRecord) DedupeKey() string {
	return textutil.NormalizeText(r.CenterName) + "\x00" + textutil.NormalizeText(r.FullAddress)
}
