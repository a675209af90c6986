package portal

// listScript extracts up to %d listing cards from a search results page.
const listScript = `
(function() {
	var limit = %d;
	var results = [];
	var cards = document.querySelectorAll('[data-testid="listing-card"], article.property-card, div.listing-item');
	var text = function(root, sel) {
		var el = root.querySelector(sel);
		return el ? el.innerText.trim() : '';
	};
	for (var i = 0; i < cards.length && results.length < limit; i++) {
		var c = cards[i];
		var link = c.querySelector('a[href*="/propiedad"], a[href*="/inmueble"], a[href]');
		results.push({
			id:        c.getAttribute('data-id') || '',
			project:   text(c, '.card-title, h2, h3'),
			price:     text(c, '.card-price, [data-testid="price"]'),
			area:      text(c, '.card-area, [data-testid="area"]'),
			rooms:     text(c, '.card-rooms, [data-testid="rooms"]'),
			location:  text(c, '.card-location, [data-testid="location"]'),
			amenities: '',
			parking:   '',
			storage:   '',
			hoa:       '',
			url:       link ? link.href : ''
		});
	}
	return results;
})()
`

// nextPageScript returns the href of the pagination "next" link, or ''.
const nextPageScript = `
(function() {
	var el = document.querySelector('a[rel="next"], a[aria-label="Siguiente"], a[aria-label="Next"], li.next a');
	return el && el.href ? el.href : '';
})()
`

// detailScript reads a listing detail page, including the cost fields that
// search cards omit.
const detailScript = `
(function() {
	var text = function(sel) {
		var el = document.querySelector(sel);
		return el ? el.innerText.trim() : '';
	};
	var feature = function(pattern) {
		var items = document.querySelectorAll('.property-features li, [data-testid="feature"]');
		for (var i = 0; i < items.length; i++) {
			var t = items[i].innerText.trim();
			if (pattern.test(t)) return t;
		}
		return '';
	};
	var amenities = [];
	document.querySelectorAll('.amenities li, [data-testid="amenity"]').forEach(function(el) {
		amenities.push(el.innerText.trim());
	});
	return {
		id:        (document.querySelector('[data-listing-id]') || {getAttribute: function(){return '';}}).getAttribute('data-listing-id') || '',
		project:   text('h1'),
		price:     text('.price-value, [data-testid="price"]'),
		area:      feature(/m²|m2/i),
		rooms:     feature(/dormitorio|habitaci|monoambiente/i),
		location:  text('.location, [data-testid="location"]'),
		amenities: amenities.join(', '),
		parking:   feature(/parqueo|garaje|parking/i),
		storage:   feature(/baulera|depósito|storage/i),
		hoa:       feature(/expensas|mantenimiento|condominio/i),
		url:       location.href
	};
})()
`
