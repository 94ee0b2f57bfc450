package catalog

// Builtin returns the default site catalog. Selector candidate lists are
// ranked most-specific-first; the last candidate for a role is always a
// broad tag-based fallback so a role never has an empty live-match space by
// construction.
func Builtin() *Catalog {
	sites := map[Category]SiteDescriptor{
		CategoryShopping: {
			Category: CategoryShopping,
			Name:     "amazon",
			BaseURL:  "https://www.amazon.com",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input#twotabsearchtextbox`,
					`input[name="field-keywords"]`,
					`input[aria-label*="Search" i]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {
					`input#nav-search-submit-button`,
					`input[type="submit"]`,
					`button[type="submit"]`,
				},
				RoleResultItem: {
					`[data-component-type="s-search-result"]`,
					`div.s-result-item`,
				},
				RoleResultTitle:  {`h2 a span`, `h2 span`, `h2`},
				RoleResultLink:   {`h2 a`, `a.a-link-normal`, `a`},
				RoleResultPrice:  {`.a-price .a-offscreen`, `.a-price-whole`, `[data-a-color="price"]`},
				RoleResultRating: {`.a-icon-alt`, `[aria-label*="stars" i]`},
				RoleResultDesc:   {`.a-size-base-plus`, `.a-text-normal`},
			},
		},
		CategoryNews: {
			Category: CategoryNews,
			Name:     "bbc",
			BaseURL:  "https://www.bbc.com",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input[name="q"]`,
					`input[type="search"]`,
					`input[placeholder*="search" i]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {`button[type="submit"]`, `button[aria-label*="search" i]`},
				RoleResultItem:   {`[data-testid="default-promo"]`, `article`, `li`},
				RoleResultTitle:  {`h2`, `h3`, `[role="heading"]`},
				RoleResultLink:   {`a[href]`},
				RoleResultDesc:   {`p`, `[data-testid="card-description"]`},
			},
		},
		CategoryJobs: {
			Category: CategoryJobs,
			Name:     "linkedin-jobs",
			BaseURL:  "https://www.linkedin.com/jobs",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input[aria-label*="job" i]`,
					`input[name="keywords"]`,
					`input[type="search"]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {`button[type="submit"]`, `button[aria-label*="search" i]`},
				RoleResultItem: {
					`.jobs-search-results__list-item`,
					`.base-card`,
					`li`,
				},
				RoleResultTitle: {`.job-card-list__title`, `.base-search-card__title`, `h3`},
				RoleResultLink:  {`a.base-card__full-link`, `a[href]`},
				RoleResultDesc:  {`.job-card-container__company-name`, `.base-search-card__subtitle`},
			},
		},
		CategoryTravel: {
			Category: CategoryTravel,
			Name:     "skyscanner",
			BaseURL:  "https://www.skyscanner.com",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input#originInput-input`,
					`input[name="originInput"]`,
					`input[type="search"]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {`button[type="submit"]`, `button[aria-label*="search" i]`},
				RoleResultItem:   {`[data-testid*="result"]`, `[class*="FlightsTicket"]`, `article`},
				RoleResultTitle:  {`[class*="LegInfo"]`, `h2`, `h3`},
				RoleResultLink:   {`a[href]`},
				RoleResultPrice:  {`[class*="Price"]`, `[data-testid*="price"]`},
			},
		},
		CategoryVideo: {
			Category: CategoryVideo,
			Name:     "youtube",
			BaseURL:  "https://www.youtube.com",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input#search`,
					`input[name="search_query"]`,
					`input[type="search"]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {`button#search-icon-legacy`, `button[aria-label*="search" i]`},
				RoleResultItem:   {`ytd-video-renderer`, `#contents ytd-video-renderer`, `a#video-title`},
				RoleResultTitle:  {`#video-title`, `h3`},
				RoleResultLink:   {`a#video-title`, `a[href]`},
				RoleResultRating: {`#metadata-line span`},
				RoleResultDesc:   {`#channel-name a`, `.metadata-snippet-text`},
			},
		},
		CategoryRestaurant: {
			Category: CategoryRestaurant,
			Name:     "google-maps",
			BaseURL:  "https://www.google.com/maps",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input#searchboxinput`,
					`input[name="q"]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {`button#searchbox-searchbutton`, `button[aria-label*="search" i]`},
				RoleResultItem:   {`[role="article"]`, `.section-result`, `a[href*="/maps/place"]`},
				RoleResultTitle:  {`.fontHeadlineSmall`, `h3`, `[role="heading"]`},
				RoleResultLink:   {`a[href*="/maps/place"]`, `a[href]`},
				RoleResultRating: {`[role="img"][aria-label*="stars" i]`, `.fontBodyMedium span`},
			},
		},
		CategoryBooks: {
			Category: CategoryBooks,
			Name:     "books-toscrape",
			BaseURL:  "https://books.toscrape.com",
			// The catalog site has no search box; browse and extract.
			Steps: []StepTemplate{
				{Kind: ActionNavigate, Required: true},
				{Kind: ActionWaitFor, Role: RoleResultItem},
				{Kind: ActionScroll, Pixels: 1200},
				{Kind: ActionExtract},
			},
			Selectors: SelectorSet{
				RoleResultItem:   {`article.product_pod`, `.product_pod`, `li`},
				RoleResultTitle:  {`h3 a`, `h3`},
				RoleResultLink:   {`h3 a`, `a[href]`},
				RoleResultPrice:  {`.price_color`, `.product_price`},
				RoleResultRating: {`p.star-rating`},
			},
		},
		CategoryGeneric: {
			Category: CategoryGeneric,
			Name:     "duckduckgo",
			BaseURL:  "https://duckduckgo.com",
			Steps:    searchSteps(),
			Selectors: SelectorSet{
				RoleSearchInput: {
					`input[name="q"]`,
					`input#searchbox_input`,
					`input[type="search"]`,
					`input[type="text"]`,
				},
				RoleSearchSubmit: {
					`button[type="submit"]`,
					`button[aria-label*="search" i]`,
					`input[type="submit"]`,
				},
				RoleResultItem: {
					`[data-testid="result"]`,
					`article[data-nrn="result"]`,
					`.result`,
				},
				RoleResultTitle: {`h2 a span`, `h2 a`, `h2`, `h3`},
				RoleResultLink:  {`h2 a`, `a[data-testid="result-title-a"]`, `a[href]`},
				RoleResultDesc:  {`[data-result="snippet"]`, `.result__snippet`},
			},
		},
	}
	return &Catalog{sites: sites}
}

// searchSteps is the shared navigate → search → extract recipe used by every
// search-driven site. The type step is required: without a bound query there
// is nothing meaningful to extract on these sites.
func searchSteps() []StepTemplate {
	return []StepTemplate{
		{Kind: ActionNavigate, Required: true},
		{Kind: ActionWaitFor, Role: RoleSearchInput},
		{Kind: ActionType, Role: RoleSearchInput, Text: "{query}", Required: true},
		{Kind: ActionClick, Role: RoleSearchSubmit},
		{Kind: ActionWaitFor, Role: RoleResultItem},
		{Kind: ActionScroll, Pixels: 900},
		{Kind: ActionExtract},
	}
}
