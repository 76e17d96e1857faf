package generic

// blockIncludeTerms mark class/id attributes of likely concert containers.
var blockIncludeTerms = []string{
	"concert", "event", "performance", "program", "repertoire",
	"season", "schedule", "calendar", "listing", "music",
}

// blockExcludeTerms veto chrome around the listing.
var blockExcludeTerms = []string{
	"nav", "menu", "header", "footer", "sidebar", "breadcrumb",
	"search", "filter", "pagination", "social", "share",
}

var headingTerms = []string{
	"concert", "symphony", "orchestra", "philharmonic", "recital",
	"chamber", "quartet", "sonata", "concerto",
}

var linkTerms = []string{"concert", "event", "performance", "program", "season", "schedule"}

var navigationKeywords = []string{
	"home", "about", "contact", "login", "register", "search",
	"menu", "navigation", "breadcrumb", "social media", "follow us",
	"subscribe", "newsletter", "privacy", "terms", "cookie",
}

var titleClassTerms = []string{"title", "event", "name", "concert", "heading"}

// titleDenylist rejects headings of site sections rather than concerts.
var titleDenylist = []string{
	"digital concert hall", "calendar", "subscriptions", "vouchers", "ticket information",
	"season highlights", "tours", "cinema", "radio", "tv", "home", "about", "contact",
}

var dateIndicators = []string{"date", "time", "when", "calendar", "schedule"}

var composers = []string{
	"Mozart", "Beethoven", "Bach", "Tchaikovsky", "Brahms", "Chopin", "Debussy",
	"Ravel", "Rachmaninoff", "Stravinsky", "Schubert", "Handel", "Haydn", "Liszt",
	"Mahler", "Mendelssohn", "Prokofiev", "Puccini", "Shostakovich", "Sibelius",
	"Schumann", "Verdi", "Wagner", "Vivaldi", "Dvořák", "Grieg", "Berlioz",
	"Britten", "Bartók", "Bruckner", "Elgar", "Fauré", "Gershwin", "Glass",
	"Holst", "Ligeti", "Monteverdi", "Mussorgsky", "Pärt", "Purcell", "Reich",
	"Rimsky-Korsakov", "Saint-Saëns", "Satie", "Schoenberg", "Tallis", "Vaughan Williams",
	"Bernstein", "Copland", "Barber",
}

// roles doubles as the instrument vocabulary.
var roles = []string{
	"conductor", "piano", "violin", "cello", "viola", "bass", "flute",
	"clarinet", "oboe", "bassoon", "trumpet", "horn", "trombone", "tuba",
	"percussion", "harp", "organ", "harpsichord", "guitar", "soprano",
	"mezzo-soprano", "alto", "tenor", "baritone", "choir", "orchestra",
	"soloist", "quartet", "ensemble", "pianist", "violinist", "cellist",
}

var pieceKeywords = []string{
	"symphony", "concerto", "sonata", "quartet", "quintet", "trio", "etude",
	"nocturne", "rhapsody", "suite", "prelude", "fugue", "variations", "ballet",
	"opera", "mass", "requiem", "cantata", "oratorio", "overture",
}

// nonPersonWords disqualify a capitalized phrase from being a performer.
var nonPersonWords = map[string]bool{
	"concert": true, "symphony": true, "orchestra": true, "hall": true, "center": true,
	"centre": true, "theatre": true, "theater": true, "music": true, "program": true,
	"season": true, "series": true, "performance": true, "tickets": true, "festival": true,
}

const (
	placeholder        = "TBA"
	defaultRole        = "performer"
	unknownComposer    = "Unknown"
	untitledWork       = "Work"
	defaultBackupTitle = "Classical Concert"
	minBlockChars      = 20
	minTitleChars      = 10
	titleSnippetChars  = 80
	roleWindow         = 30
	composerBefore     = 10
	composerAfter      = 100
	keywordLookback    = 50
	backupBefore       = 100
	backupAfter        = 300
	defaultBlockCap    = 15
	supplementBelow    = 3
	maxNameWords       = 4
	minPerformerName   = 3
)
